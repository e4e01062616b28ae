// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package i18n localizes verification emails and pages. Translations are
// embedded TOML files named active.<lang>.toml; every file found is loaded
// and its language becomes selectable through Accept-Language.
package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage is used when no requested language is available.
var DefaultLanguage = language.English

//go:embed translations/active.*.toml
var translationFS embed.FS

var (
	bundle  *i18n.Bundle
	initErr error
	once    sync.Once
)

type localeKey struct{}

// Init loads the embedded translations. It is safe to call more than once;
// only the first call loads.
func Init() error {
	once.Do(func() {
		initErr = load()
	})
	return initErr
}

func load() error {
	b := i18n.NewBundle(DefaultLanguage)
	b.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(translationFS, "translations/active.*.toml")
	if err != nil {
		return err
	}
	for _, file := range files {
		if _, err := b.LoadMessageFileFS(translationFS, file); err != nil {
			return fmt.Errorf("loading %s: %w", file, err)
		}
	}

	bundle = b
	return nil
}

// Supported returns the languages with translations, default first.
func Supported() []language.Tag {
	if bundle == nil {
		return []language.Tag{DefaultLanguage}
	}
	return bundle.LanguageTags()
}

// MatchLanguage picks the supported language that best fits an
// Accept-Language header value.
func MatchLanguage(acceptLanguage string) language.Tag {
	supported := Supported()
	_, idx := language.MatchStrings(language.NewMatcher(supported), acceptLanguage)
	return supported[idx]
}

// WithLocale stores the language used for messages rendered under ctx.
func WithLocale(ctx context.Context, lang language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, lang)
}

// GetLocale returns the language code stored in ctx, or the default.
func GetLocale(ctx context.Context) string {
	return locale(ctx).String()
}

func locale(ctx context.Context) language.Tag {
	if lang, ok := ctx.Value(localeKey{}).(language.Tag); ok {
		return lang
	}
	return DefaultLanguage
}

// T translates a message by ID.
func T(ctx context.Context, messageID string) string {
	return TData(ctx, messageID, nil)
}

// TData translates a message with template data. Unknown IDs, and any call
// before Init, render as the ID itself.
func TData(ctx context.Context, messageID string, data map[string]any) string {
	if bundle == nil {
		return messageID
	}
	msg, err := i18n.NewLocalizer(bundle, locale(ctx).String()).Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
