package locales

import (
	"embed"
	"encoding/json"
	"log"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

// DefaultLanguage is the language used when a caller has no preference.
// The bot's audience is Russian-speaking, so Russian is the default.
const DefaultLanguage = "ru"

var (
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
)

// Init initializes the i18n bundle by loading the embedded language files.
func Init() {
	var err error
	defaultLanguage, err = language.Parse(DefaultLanguage)
	if err != nil {
		log.Printf("WARN: Failed to parse default language code '%s': %v. Falling back to English.", DefaultLanguage, err)
		defaultLanguage = language.English
	}

	bundle = i18n.NewBundle(defaultLanguage)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	fs, err := localeFS.ReadDir(".")
	if err != nil {
		log.Fatalf("Failed to read embedded locales directory: %v", err)
	}

	loadedFiles := 0
	for _, file := range fs {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".json") {
			if _, err := bundle.LoadMessageFileFS(localeFS, file.Name()); err != nil {
				log.Printf("WARN: Failed to load message file '%s': %v", file.Name(), err)
			} else {
				loadedFiles++
			}
		}
	}
	if loadedFiles == 0 {
		log.Fatalf("No message files loaded from locales/")
	}
	log.Printf("i18n bundle initialized with %d file(s). Default language: %s", loadedFiles, defaultLanguage.String())
}

// NewLocalizer creates a localizer for the given language preferences.
// It takes language tags (e.g., "en", "ru") or Accept-Language header string.
func NewLocalizer(langPrefs ...string) *i18n.Localizer {
	if bundle == nil {
		log.Panicln("Attempted to create localizer before i18n bundle initialization.")
	}
	return i18n.NewLocalizer(bundle, langPrefs...)
}

// GetMessage retrieves and formats a message by its ID using the provided localizer.
// templateData is an optional map for template variables.
func GetMessage(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}, pluralCount *int) string {
	config := &i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: templateData,
	}
	if pluralCount != nil {
		config.PluralCount = *pluralCount
	}

	localizedMsg, err := localizer.Localize(config)
	if err != nil {
		log.Printf("ERROR: Failed to localize message ID '%s': %v. Falling back to default language.", msgID, err)

		fallbackLocalizer := i18n.NewLocalizer(bundle, defaultLanguage.String())
		fallbackMsg, fallbackErr := fallbackLocalizer.Localize(config)
		if fallbackErr == nil {
			return fallbackMsg
		}

		log.Printf("ERROR: Failed to localize message ID '%s' in default language as well. Returning ID.", msgID)
		return msgID
	}
	return localizedMsg
}

// MonthName returns the localized name of a calendar month (1-12).
func MonthName(localizer *i18n.Localizer, month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	ids := [...]string{
		"MonthJanuary", "MonthFebruary", "MonthMarch", "MonthApril",
		"MonthMay", "MonthJune", "MonthJuly", "MonthAugust",
		"MonthSeptember", "MonthOctober", "MonthNovember", "MonthDecember",
	}
	return GetMessage(localizer, ids[month-1], nil, nil)
}
