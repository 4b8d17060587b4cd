package authz

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// The catalog carries human-readable permission names which historically
// mixed languages ("Criar Tarefas", "Create Boards"). Matching is done on
// a canonical slug instead: lowercased, diacritics folded, kebab-cased,
// with localized action words mapped to one canonical verb.
var actionAliases = map[string]string{
	"criar":      "create",
	"editar":     "edit",
	"excluir":    "delete",
	"remover":    "delete",
	"visualizar": "view",
	"ver":        "view",
	"gerenciar":  "manage",
	"update":     "edit",
}

var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives the canonical matching key for a permission name.
// Slug("Criar Tarefas") == "create-tarefas"; Slug("Visualizar Análises")
// == "view-analises". The empty name yields the empty slug.
func Slug(name string) string {
	folded, _, err := transform.String(foldDiacritics, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return ""
	}
	if canonical, ok := actionAliases[fields[0]]; ok {
		fields[0] = canonical
	}
	return strings.Join(fields, "-")
}
