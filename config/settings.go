// config/settings.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds the environment-driven knobs for the reminder pipeline.
// Values come from the environment with the reference deployment's defaults.
type Settings struct {
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	SchedulerTimezone  string
	ReminderLookahead  int           // days ahead still worth a reminder
	ReminderCooldown   time.Duration // minimum gap between reminders to one member
	ReminderSendGap    time.Duration // pause between consecutive outbound sends
}

func LoadSettings() Settings {
	return Settings{
		TwilioAccountSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_NUMBER", "whatsapp:+14155238886"),
		SchedulerTimezone:  getEnv("SCHEDULER_TIMEZONE", "Asia/Kolkata"),
		ReminderLookahead:  getEnvInt("REMINDER_LOOKAHEAD_DAYS", 3),
		ReminderCooldown:   time.Duration(getEnvInt("REMINDER_COOLDOWN_HOURS", 24)) * time.Hour,
		ReminderSendGap:    time.Duration(getEnvInt("REMINDER_SEND_INTERVAL_SECONDS", 2)) * time.Second,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
