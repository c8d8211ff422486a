package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// ConfigCORS builds the CORS middleware from a comma separated origin list.
// An empty list allows all origins, which is only sensible in development.
func ConfigCORS(allowedOrigins string) gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if allowedOrigins == "" {
		conf.AllowAllOrigins = true
		conf.AllowCredentials = false
	} else {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			conf.AllowOrigins = append(conf.AllowOrigins, strings.TrimSpace(origin))
		}
	}

	return cors.New(conf)
}
