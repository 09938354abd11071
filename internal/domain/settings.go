package domain

// TranslationSettings is process-wide engine configuration. It is loaded at
// engine construction from the settings store and written back on every
// update; there is one instance per process.
type TranslationSettings struct {
	// PreferredProvider is "auto" or a single provider tag. Anything but
	// "auto" collapses the fallback chain to that provider (plus offline,
	// if FallbackToOffline is set).
	PreferredProvider string `json:"preferred_provider"`
	// AutoDetectLanguage enables the language detector when the caller does
	// not supply a source language.
	AutoDetectLanguage bool `json:"auto_detect_language"`
	// FallbackToOffline appends the offline dictionary as the terminal chain
	// link.
	FallbackToOffline bool `json:"fallback_to_offline"`
	// CacheTranslations enables the translation cache for both reads and
	// writes.
	CacheTranslations bool `json:"cache_translations"`
}

func DefaultSettings() TranslationSettings {
	return TranslationSettings{
		PreferredProvider:  AutoProvider,
		AutoDetectLanguage: true,
		FallbackToOffline:  true,
		CacheTranslations:  true,
	}
}
