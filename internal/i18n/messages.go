// Package i18n holds the user-facing message catalog. The shipped product
// surfaces failures in Brazilian Portuguese; English is available for
// development and is the form the failure-classification contract is
// documented in. Lookup is by BCP 47 tag with standard matching, so "pt",
// "pt-BR" and "pt-PT" all resolve to the Portuguese catalog.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

// Message keys. Formatting directives are part of the catalog entry.
const (
	KeyNetworkError    = "network_error"    // %s: transport error description
	KeyHTTPError       = "http_error"       // %d status, %s status text
	KeyUnexpectedError = "unexpected_error" // %s: error description
	KeyImageURLMissing = "image_url_missing"
	KeyFilePrepare     = "file_prepare_failed"

	KeyTitleRequired      = "title_required"
	KeyAuthorRequired     = "author_required"
	KeyCategoryRequired   = "category_required"
	KeyImageRequired      = "image_required"
	KeyNameRequired       = "name_required"
	KeyEmailRequired      = "email_required"
	KeyCredentialRequired = "credential_required"
	KeyPasswordRequired   = "password_required"
	KeyPasswordTooShort   = "password_too_short"
	KeyPasswordMismatch   = "password_mismatch"
)

var supported = []language.Tag{
	language.BrazilianPortuguese, // default
	language.English,
}

var matcher = language.NewMatcher(supported)

var catalogs = map[language.Tag]map[string]string{
	language.BrazilianPortuguese: {
		KeyNetworkError:    "Erro de rede: %s",
		KeyHTTPError:       "Erro HTTP %d: %s",
		KeyUnexpectedError: "Erro: %s",
		KeyImageURLMissing: "URL da imagem é nula.",
		KeyFilePrepare:     "Falha ao preparar o arquivo para envio.",

		KeyTitleRequired:      "O título é obrigatório.",
		KeyAuthorRequired:     "O autor é obrigatório.",
		KeyCategoryRequired:   "Selecione uma categoria.",
		KeyImageRequired:      "Selecione uma imagem.",
		KeyNameRequired:       "O nome é obrigatório.",
		KeyEmailRequired:      "O e-mail é obrigatório.",
		KeyCredentialRequired: "Informe o usuário ou e-mail.",
		KeyPasswordRequired:   "Informe a senha.",
		KeyPasswordTooShort:   "A senha deve ter pelo menos 8 caracteres.",
		KeyPasswordMismatch:   "As senhas não coincidem.",
	},
	language.English: {
		KeyNetworkError:    "Network error: %s",
		KeyHTTPError:       "HTTP error %d: %s",
		KeyUnexpectedError: "Error: %s",
		KeyImageURLMissing: "image URL is missing",
		KeyFilePrepare:     "failed to prepare file for upload",

		KeyTitleRequired:      "title is required",
		KeyAuthorRequired:     "author is required",
		KeyCategoryRequired:   "select a category",
		KeyImageRequired:      "select an image",
		KeyNameRequired:       "name is required",
		KeyEmailRequired:      "email is required",
		KeyCredentialRequired: "enter your username or email",
		KeyPasswordRequired:   "enter your password",
		KeyPasswordTooShort:   "password must be at least 8 characters",
		KeyPasswordMismatch:   "passwords do not match",
	},
}

// Catalog resolves message keys for one locale.
type Catalog struct {
	tag language.Tag
}

// New returns the catalog matching the given BCP 47 locale string.
// Unknown or unparsable locales fall back to Brazilian Portuguese.
func New(locale string) *Catalog {
	tag, err := language.Parse(locale)
	if err != nil {
		return &Catalog{tag: language.BrazilianPortuguese}
	}
	_, idx, _ := matcher.Match(tag)
	return &Catalog{tag: supported[idx]}
}

// Default returns the product-default (pt-BR) catalog.
func Default() *Catalog { return &Catalog{tag: language.BrazilianPortuguese} }

// English returns the English catalog.
func English() *Catalog { return &Catalog{tag: language.English} }

// Tag reports the resolved language tag.
func (c *Catalog) Tag() language.Tag { return c.tag }

// T returns the catalog entry for key. Missing entries fall back to English,
// then to the key itself so a bad key is visible rather than silent.
func (c *Catalog) T(key string) string {
	if m, ok := catalogs[c.tag]; ok {
		if s, ok := m[key]; ok {
			return s
		}
	}
	if s, ok := catalogs[language.English][key]; ok {
		return s
	}
	return key
}

// Tf formats the catalog entry for key with args.
func (c *Catalog) Tf(key string, args ...any) string {
	return fmt.Sprintf(c.T(key), args...)
}
