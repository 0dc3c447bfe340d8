package http

import "github.com/gin-gonic/gin"

// registerV1Routes sets up the /api/v1 readings endpoints.
func (s *Server) registerV1Routes() {
	v1 := s.engine.Group("/api/v1")
	v1.Use(apiVersionMiddleware())

	containers := v1.Group("/containers")
	{
		containers.GET("", s.handleV1ListContainers)
		containers.GET("/:registration/latest", s.handleV1LatestReading)
		containers.GET("/:registration/readings", s.handleV1Readings)
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}
