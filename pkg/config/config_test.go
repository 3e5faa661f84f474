package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "Platform Instructor", cfg.Certificates.FallbackInstructor)
	assert.Equal(t, 5, cfg.Certificates.NumberRetries)
	assert.Equal(t, "http://localhost:8080/api/v1/certificates/verify", cfg.Certificates.VerifyBaseURL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.VerifyTTL)
	assert.Equal(t, AuditConfig{Workers: 2, BufferSize: 256, MaxRetries: 3}, cfg.Audit)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("CERTIFICATE_NUMBER_RETRIES", 0)
	v.Set("CERTIFICATE_VERIFY_BASE_URL", "https://lms.example.com/api/v1/certificates/verify/")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5, cfg.Certificates.NumberRetries)
	assert.Equal(t, "https://lms.example.com/api/v1/certificates/verify", cfg.Certificates.VerifyBaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
