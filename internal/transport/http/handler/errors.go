package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"coffee-salon/internal/transport/http/response"
)

// fail logs err and writes it as the route's failure envelope.
func fail(c *gin.Context, code string, err error) {
	_ = c.Error(err)
	log.Ctx(c.Request.Context()).Error().Err(err).Str("code", code).Msg("request failed")
	response.Error(c, code, err.Error())
}
