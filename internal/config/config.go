package config

import (
	"io/fs"
	"time"
)

// -----------------------------------------------------------------------------
// Build Information
// -----------------------------------------------------------------------------

// Build variables are injected via -ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent identifies the HTTP client.
var UserAgent = "Go-Heatmap/" + Version

// -----------------------------------------------------------------------------
// Application Constants
// -----------------------------------------------------------------------------

const (
	AppName           = "Go Heatmap"
	AppID             = "com.github.tartampluch.go-heatmap"
	BinaryName        = "heatmap"
	LocalhostBindAddr = "127.0.0.1"
	LogFileName       = "app.log"
)

// -----------------------------------------------------------------------------
// Exit Codes
// -----------------------------------------------------------------------------

const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
)

// -----------------------------------------------------------------------------
// System & File Permissions
// -----------------------------------------------------------------------------

const (
	// FilePermUserRW represents -rw------- (Read/Write for owner only).
	FilePermUserRW fs.FileMode = 0600

	// DirPermUserRWX represents drwx------ (Read/Write/Exec for owner only).
	DirPermUserRWX fs.FileMode = 0700

	// ChannelBufferSize defines the standard buffer size for internal signaling channels.
	ChannelBufferSize = 1
)

// -----------------------------------------------------------------------------
// CLI Flags & Descriptions
// -----------------------------------------------------------------------------

const (
	FlagVersion   = "version"
	FlagDebug     = "debug"
	FlagYear      = "year"
	FlagYearShort = "y"
	FlagSrc       = "src"
	FlagSrcShort  = "s"
	FlagColor     = "color"
	FlagAll       = "all"
	FlagServe     = "serve"
	FlagPort      = "port"

	FlagDescVersion = "Show application version and exit"
	FlagDescDebug   = "Enable debug logging to stderr"
	FlagDescYear    = "Print the given `year`"
	FlagDescSrc     = "Source of data (SQLite file, .ics file or http(s) URL)"
	FlagDescColor   = "Colorize output: auto, always or never"
	FlagDescAll     = "Print every year present in the data source"
	FlagDescServe   = "Serve the heatmap over HTTP instead of printing it"
	FlagDescPort    = "Port used by --serve"

	MsgVersionOutput = "%s version %s (%s/%s)\n"

	// UsageRange documents the positional argument grammar.
	UsageRange = `  range
    	Date range, like:
    	  <EMPTY>              : from the first day 2 months ago to today
    	  "20220101-20231231"  : from 1 Jan 2022 to 31 Dec 2023
    	  "_-20231231"         : from 1 Jan of the first year with data to 31 Dec 2023
    	  "20220101-_"         : from 1 Jan 2022 to today
    	  "20220101"           : same as "20220101-_"
`
	FormatUsageLine = "%s [OPTIONS] [range]\n\n"
)

// Color modes accepted by --color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// -----------------------------------------------------------------------------
// Environment
// -----------------------------------------------------------------------------

const (
	EnvDataPath = "DATA_PATH"
	EnvFile     = ".env"
)

// EnvLanguageVars lists the locale variables in priority order.
var EnvLanguageVars = []string{"LC_ALL", "LC_MESSAGES", "LANG"}

// -----------------------------------------------------------------------------
// Date Range Grammar
// -----------------------------------------------------------------------------

const (
	RangeSeparator    = "-"
	RangeOpen         = "_"
	DateFormatRange   = "20060102"
	DateFormatDisplay = "2006-01-02"

	// DefaultMonthsBack is how far back the default range starts (first day of that month).
	DefaultMonthsBack = 2
)

// -----------------------------------------------------------------------------
// Grid Layout & Glyphs
// -----------------------------------------------------------------------------

const (
	DaysPerWeek  = 7
	MonthsInYear = 12

	GlyphEmpty = " "
	GlyphL0    = "."
	GlyphL1    = "+"
	GlyphL2    = "%"
	GlyphL3    = "@"
	GlyphL4    = "#"

	PrefixMonthStart = "*"
	PrefixPlain      = " "

	WeekTrailer      = " |"
	FormatMonthLabel = " %02d"
	FormatYearLabel  = "   %d"
	LineEnd          = "\n"
)

// -----------------------------------------------------------------------------
// Translation Keys (I18n)
// -----------------------------------------------------------------------------

const (
	TKeyErrNoSource    = "err_no_source"
	TKeyErrWrongDate   = "err_wrong_date"
	TKeyErrNoData      = "err_no_data"
	TKeyErrDatabase    = "err_database"
	TKeyErrParse       = "err_parse"
	TKeyErrIO          = "err_io"
	TKeyErrFmt         = "err_fmt"
	TKeyUsageHeader    = "usage_header"
	LocalesDir         = "locales"
	LocaleFilePrefix   = "active."
	LocaleFileSuffix   = ".json"
	LocaleFormatJSON   = "json"
	DefaultLanguage    = "en"
	LocaleEncodingSep  = "."
	LocaleRegionSep    = "_"
	LocaleRegionSepBCP = "-"
	LocaleC            = "C"
	LocalePOSIX        = "POSIX"
)

// SupportedLanguages defines the list of available message languages (ISO 639-1).
var SupportedLanguages = []string{"en", "fr"}

// -----------------------------------------------------------------------------
// Data Sources
// -----------------------------------------------------------------------------

const (
	SQLiteDriver        = "sqlite3"
	SchemeFile          = "file"
	SQLiteQueryReadOnly = "mode=ro"
	QueryTables         = "SELECT name FROM sqlite_master WHERE type='table'"
	QueryYearFormat     = `SELECT month, day FROM "%s"`
	ExtICS              = ".ics"
	ExtICal             = ".ical"
	SchemeHTTP          = "http"
	SchemeHTTPS         = "https"
	SchemeSeparator     = "://"
	EventsPerRow        = 1
	EventsPerVEvent     = 1
	MaxFetchBodySize    = 64 * 1024 * 1024 // 64MB
)

// -----------------------------------------------------------------------------
// Network & Timeouts
// -----------------------------------------------------------------------------

const (
	DefaultPort        = "18080"
	HTTPTimeout        = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ServerIdleTimeout  = 60 * time.Second
	RetryAfterSeconds  = "10"
	AllowedMethods     = "GET, HEAD"
	RouteRoot          = "/"
	AddrSeparator      = ":"
	QueryParamRange    = "range"
	QueryParamYear     = "year"
)

// -----------------------------------------------------------------------------
// HTTP Headers & MIME Types
// -----------------------------------------------------------------------------

const (
	HeaderContentType     = "Content-Type"
	HeaderCacheControl    = "Cache-Control"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderRetryAfter      = "Retry-After"
	HeaderAllow           = "Allow"
	HeaderXContentType    = "X-Content-Type-Options"
	HeaderUserAgent       = "User-Agent"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"

	MimeTextPlain       = "text/plain; charset=utf-8"
	MimeTextCalendar    = "text/calendar"
	MimeNoSniff         = "nosniff"
	CacheControlPrivate = "private, no-cache"

	// FormatETag expects a string argument.
	FormatETag = `"%s"`
)

// -----------------------------------------------------------------------------
// Error Kind Messages (fallbacks when no translation is available)
// -----------------------------------------------------------------------------

const (
	ErrTag = "[error]"

	ErrKindNoSource  = "have no source of data, use '-s' or set an environment variable named 'DATA_PATH'"
	ErrKindWrongDate = "given date is wrong"
	ErrKindNoData    = "have no data about input"
	ErrKindDatabase  = "database error"
	ErrKindParse     = "parse error"
	ErrKindIO        = "io error"
	ErrKindFmt       = "format error"
)

// -----------------------------------------------------------------------------
// Error Messages (Technical/Logs)
// -----------------------------------------------------------------------------

const (
	ErrRangeConflict  = "range and year cannot be given together"
	ErrAllConflict    = "--all cannot be combined with a range or a year"
	ErrTooManyArgs    = "too many positional arguments"
	ErrUnknownColor   = "unknown color mode"
	ErrRangeShape     = "range must look like YYYYMMDD[-YYYYMMDD]"
	ErrRangeInverted  = "range start is after range end"
	ErrOrdinalRange   = "day of year out of range"
	ErrYearValue      = "invalid year"
	ErrSourceOpen     = "failed to open data source"
	ErrTableList      = "failed to list tables"
	ErrTableQuery     = "failed to query table"
	ErrRowScan        = "failed to read row"
	ErrRowDate        = "row holds an invalid date"
	ErrICalDecode     = "failed to decode iCalendar stream"
	ErrICalStart      = "event has no usable start date"
	ErrInvalidURL     = "invalid URL structure"
	ErrProtocol       = "unsupported protocol scheme (http/https only)"
	ErrFetcherMissing = "internal error: network fetcher is not initialized"
	ErrFeedRequest    = "failed to build feed request"
	ErrFeedNetwork    = "network error during feed download"
	ErrFeedStatus     = "feed server answered"
	ErrFeedTooLarge   = "calendar feed exceeds the size limit"
	ErrFeedType       = "feed is not an iCalendar document"
	ErrServerStartup  = "server startup failed"
	ErrServerShutdown = "server shutdown failed"
	ErrPortRequired   = "server port is required"
	ErrLogFile        = "failed to open log file"
	ErrCacheDir       = "could not determine user cache dir"
	ErrCreateDir      = "could not create app cache dir"
	ErrAppFailed      = "application failed"
	ErrWriteResp      = "failed to write response body"
	ErrLocalesAccess  = "failed to access embedded locales"
	ErrLocaleLoad     = "failed to load locale file"
	ErrWriteLine      = "failed to write line"
	ErrAssembleLine   = "failed to assemble line"
	ErrCloseSource    = "failed to close data source"
	ErrDotEnv         = "failed to load .env file"
	ErrFlagParse      = "invalid command line"
)

// -----------------------------------------------------------------------------
// HTTP Server Responses
// -----------------------------------------------------------------------------

const (
	HTTPMsgInitializing = "Heatmap initializing, please try again shortly."
	HTTPMsgMethodNotAll = "Method Not Allowed"
	HTTPMsgInternalErr  = "Internal Server Error"
)

// -----------------------------------------------------------------------------
// Log Messages
// -----------------------------------------------------------------------------

const (
	MsgAppStarting   = "Starting application"
	MsgAppStop       = "Application stopped"
	MsgLogWarning    = "Warning: %s at %s: %v\n"
	MsgSourceOpened  = "Data source opened"
	MsgImportDone    = "Import finished"
	MsgTableSkipped  = "Skipping non-year table"
	MsgRangeResolved = "Date range resolved"
	MsgRenderDone    = "Rendering finished"
	MsgBrokenPipe    = "Output closed by consumer"
	MsgServerListen  = "HTTP server listening"
	MsgServerStop    = "Shutting down HTTP server..."
	MsgStoreUpdated  = "Heatmap snapshot updated"
	MsgEventSkipped  = "Skipping event without start date"
	MsgLocaleSkip    = "Skipping non-locale file"
	MsgLocaleLoaded  = "Locale loaded successfully"
	MsgTransMissing  = "Missing translation key"
	MsgFetchStart    = "Initiating iCalendar download"
	MsgFetchRejected = "Feed response rejected"
	MsgFetchBody     = "iCalendar downloading"
	MsgRequestFailed = "Heatmap request rejected"
)

// -----------------------------------------------------------------------------
// Structured Logging Keys (slog)
// -----------------------------------------------------------------------------

const (
	LogKeyComponent = "component"
	LogKeyError     = "error"
	LogKeyURL       = "url"
	LogKeyStatus    = "status_code"
	LogKeyFile      = "file"
	LogKeyLang      = "lang"
	LogKeyKey       = "key"
	LogKeyPort      = "port"
	LogKeySource    = "source"
	LogKeyKind      = "kind"
	LogKeyTable     = "table"
	LogKeyYears     = "years"
	LogKeyEvents    = "events"
	LogKeyFrom      = "from"
	LogKeyTo        = "to"
	LogKeyDuration  = "duration_ms"
	LogKeyLength    = "content_length"

	// Startup Info Keys
	LogKeyBuild   = "build"
	LogKeyApp     = "app"
	LogKeyVersion = "version"
	LogKeyCommit  = "commit"
	LogKeyBuilt   = "built"
	LogKeyGoVer   = "go_version"
	LogKeyEnv     = "env"
	LogKeyOS      = "os"
	LogKeyArch    = "arch"
	LogKeyPID     = "pid"
)

// -----------------------------------------------------------------------------
// Log Components
// -----------------------------------------------------------------------------

const (
	CompMain    = "main"
	CompCLI     = "cli"
	CompImport  = "import"
	CompRender  = "render"
	CompServer  = "server"
	CompFetcher = "fetcher"
	CompI18n    = "i18n"
)
