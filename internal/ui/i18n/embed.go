package i18n

import "embed"

// LocaleFS — встроенные JSON-каталоги переводов.
// Файл каталога на каждый язык из Languages.
//
//go:embed locales/*.json
var LocaleFS embed.FS
