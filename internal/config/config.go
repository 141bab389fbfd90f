package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port             int
	LogLevel         string
	GeminiAPIKeys    []string
	GeminiModel      string
	JotformAPIKey    string
	JotformFormID    string
	FieldMappingPath string
	CaseOwner        string
	EvidenceEmail    string
	EvidenceWhatsApp string
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
}

func Load() Config {
	return Config{
		Port:             envInt("INTAKE_PORT", 8760),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		GeminiAPIKeys:    envList("GEMINI_API_KEYS"),
		GeminiModel:      envStr("INTAKE_MODEL", "gemini-1.5-flash"),
		JotformAPIKey:    envStr("JOTFORM_API_KEY", ""),
		JotformFormID:    envStr("JOTFORM_FORM_ID", ""),
		FieldMappingPath: envStr("FIELD_MAPPING_PATH", "field_mapping.yaml"),
		CaseOwner:        envStr("CASE_OWNER", "Alex Ssemambo"),
		EvidenceEmail:    envStr("EVIDENCE_EMAIL", "uprotectme@protonmail.com"),
		EvidenceWhatsApp: envStr("EVIDENCE_WHATSAPP", "+256764508050"),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", ""),
		NatsToken:        envStr("NATS_TOKEN", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envList parses a comma-separated env var, trimming whitespace around each
// entry and dropping empties.
func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
