// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaultConfig registers default values on v.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("main.name", "comingsoon")
	v.SetDefault("main.log.level", "info")
	v.SetDefault("main.log.timezone", "Local")
	v.SetDefault("main.log.file", false)
	v.SetDefault("main.log.path", "logs/comingsoon.log")

	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.autotls", false)
	v.SetDefault("webserver.host", "")
	v.SetDefault("webserver.basepath", "")
	v.SetDefault("webserver.readtimeout", 10*time.Second)
	v.SetDefault("webserver.writetimeout", 30*time.Second)
	v.SetDefault("webserver.shutdowntimeout", 10*time.Second)

	v.SetDefault("signup.baseurl", "http://localhost:3000")
	v.SetDefault("signup.path", "/api/notifyme")
	v.SetDefault("signup.timeout", 15*time.Second)
	v.SetDefault("signup.useragent", "comingsoon/1.0")

	v.SetDefault("captcha.provider", "recaptcha")
	v.SetDefault("captcha.sitekey", "")
	v.SetDefault("captcha.theme", "dark")

	v.SetDefault("session.secret", "")
	v.SetDefault("session.secretfile", "")
	v.SetDefault("session.cookiename", "comingsoon_visit")
	v.SetDefault("session.maxage", 86400)
	v.SetDefault("session.idlettl", 30*time.Minute)
	v.SetDefault("session.secure", false)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requestspersecond", 1.0)
	v.SetDefault("ratelimit.burst", 5)
	v.SetDefault("ratelimit.expiresin", 3*time.Minute)

	v.SetDefault("toast.duration", 5*time.Second)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.dsnfile", "")
	v.SetDefault("sentry.environment", "production")
	v.SetDefault("sentry.samplerate", 1.0)
	v.SetDefault("sentry.debug", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.listen", "")

	v.SetDefault("page.title", "Coming Soon")
	v.SetDefault("page.eventname", "Launch Week")
	v.SetDefault("page.headline", "Something new is")
	v.SetDefault("page.highlight", "Coming Soon!")
	v.SetDefault("page.tagline", "Leave your email and we will let you know the moment it goes live.")
	v.SetDefault("page.background", "/assets/background.svg")
	v.SetDefault("page.starcount", 25)
	v.SetDefault("page.starseed", 1)
	v.SetDefault("page.orbcolors", []string{"#F9A318", "#047A3C", "#2F67B4"})
}
