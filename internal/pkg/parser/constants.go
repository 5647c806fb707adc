package parser

// Sentinels returned when no rule of a table matches.
const (
	UnknownBrowser = "Unknown Browser"
	UnknownOS      = "Unknown OS"
	UnknownEngine  = "Unknown Engine"
	UnknownDevice  = "Unknown"
	UnknownVersion = "Unknown"
)

const (
	BrowserEdge      = "Edge"
	BrowserOpera     = "Opera"
	BrowserChrome    = "Chrome"
	BrowserSafari    = "Safari"
	BrowserFirefox   = "Firefox"
	BrowserIE        = "Internet Explorer"
	BrowserBrave     = "Brave"
	BrowserVivaldi   = "Vivaldi"
	BrowserSeaMonkey = "SeaMonkey"
	BrowserSailfish  = "Sailfish"
	BrowserSilk      = "Silk"
	BrowserYandex    = "Yandex"
	BrowserUC        = "UC Browser"
	BrowserSamsung   = "Samsung Browser"
)

const (
	OSWindows      = "Windows"
	OSWindowsPhone = "Windows Phone"
	OSMacOS        = "macOS"
	OSiOS          = "iOS"
	OSiPadOS       = "iPadOS"
	OSAndroid      = "Android"
	OSChromeOS     = "Chrome OS"
	OSLinux        = "Linux"
	OSUbuntu       = "Ubuntu"
	OSBlackBerry   = "BlackBerry"
	OSWebOS        = "webOS"
	OSFreeBSD      = "FreeBSD"
	OSOpenBSD      = "OpenBSD"
	OSNetBSD       = "NetBSD"
)

const (
	DeviceTypeMobile  = "Mobile"
	DeviceTypeTablet  = "Tablet"
	DeviceTypeDesktop = "Desktop"
)

const (
	EngineWebKit  = "WebKit"
	EngineGecko   = "Gecko"
	EngineTrident = "Trident"
	EnginePresto  = "Presto"
	EngineBlink   = "Blink"
)
