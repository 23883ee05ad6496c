package config

const (
	defaultDataDir         = "~/.local/share/lbxwatch"
	defaultLogDir          = "~/.local/share/lbxwatch/logs"
	defaultCatalogBaseURL  = "https://apis.justwatch.com/graphql"
	defaultCatalogCountry  = "GB"
	defaultCatalogLanguage = "en"
	defaultSearchLimit     = 10
	defaultSource          = "WATCHLIST"
	defaultSleepMS         = 800
	defaultBatchSize       = 500
	defaultStaleDays       = 7
	defaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	defaultTMDBLanguage    = "en-US"
	defaultOMDBBaseURL     = "https://www.omdbapi.com"
	defaultEnrichBatchSize = 300
	defaultEnrichSleepMS   = 350
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Catalog: Catalog{
			BaseURL:     defaultCatalogBaseURL,
			Country:     defaultCatalogCountry,
			Language:    defaultCatalogLanguage,
			SearchLimit: defaultSearchLimit,
			BestOnly:    true,
		},
		Update: Update{
			Source:      defaultSource,
			SleepMS:     defaultSleepMS,
			BatchSize:   defaultBatchSize,
			StaleDays:   defaultStaleDays,
			TrackOffers: true,
		},
		Enrich: Enrich{
			TMDBBaseURL:  defaultTMDBBaseURL,
			TMDBLanguage: defaultTMDBLanguage,
			OMDBBaseURL:  defaultOMDBBaseURL,
			BatchSize:    defaultEnrichBatchSize,
			SleepMS:      defaultEnrichSleepMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
