// Package locale localizes panel messages with go-i18n bundles loaded from
// TOML translation files.
package locale

import (
	"embed"
	"io/fs"
	"strings"

	"github.com/hospital-ui/hospital-ui/logger"

	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"
)

var i18nBundle *i18n.Bundle

type I18nType string

const (
	Web I18nType = "web"
	Cli I18nType = "cli"
)

// I18nFunc is stored in the gin context under "I18n".
type I18nFunc func(i18nType I18nType, key string, params ...string) string

func InitLocalizer(i18nFS embed.FS) error {
	bundle := i18n.NewBundle(language.MustParse("en-US"))
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	if err := parseTranslationFiles(i18nFS, bundle); err != nil {
		return err
	}
	i18nBundle = bundle
	return nil
}

func createTemplateData(params []string, seperator ...string) map[string]any {
	sep := "=="
	if len(seperator) > 0 {
		sep = seperator[0]
	}

	templateData := make(map[string]any)
	for _, param := range params {
		parts := strings.SplitN(param, sep, 2)
		if len(parts) != 2 {
			continue
		}
		templateData[parts[0]] = parts[1]
	}
	return templateData
}

// localize renders key with localizer. Missing bundles or keys fall back to
// the key itself so callers always get something printable.
func localize(localizer *i18n.Localizer, key string, params ...string) string {
	if localizer == nil {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: createTemplateData(params),
	})
	if err != nil {
		logger.Warningf("Failed to localize message %q: %v", key, err)
		return key
	}
	return msg
}

// NewLocalizer returns a localizer for the given Accept-Language style list.
func NewLocalizer(langs ...string) *i18n.Localizer {
	if i18nBundle == nil {
		return nil
	}
	return i18n.NewLocalizer(i18nBundle, langs...)
}

// I18n localizes key in the default language. The type only selects the
// key prefix.
func I18n(i18nType I18nType, key string, params ...string) string {
	return localize(NewLocalizer(), string(i18nType)+"."+key, params...)
}

func LocalizerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lang string
		if cookie, err := c.Request.Cookie("lang"); err == nil {
			lang = cookie.Value
		} else {
			lang = c.GetHeader("Accept-Language")
		}

		localizer := NewLocalizer(lang)
		c.Set("localizer", localizer)
		c.Set("I18n", I18nFunc(func(i18nType I18nType, key string, params ...string) string {
			return localize(localizer, string(i18nType)+"."+key, params...)
		}))
		c.Next()
	}
}

func parseTranslationFiles(i18nFS embed.FS, bundle *i18n.Bundle) error {
	return fs.WalkDir(i18nFS, "translation", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := i18nFS.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = bundle.ParseMessageFileBytes(data, path)
		return err
	})
}
