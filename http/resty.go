package http

import (
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/codecomet-io/codecomet-go/common/logger"
	interceptors "github.com/codecomet-io/codecomet-go/http/interceptors/resty"
)

// NewRestyWithClient builds a Resty client on top of an existing HTTP
// client, with trace and correlation propagation injected.
func NewRestyWithClient(client *http.Client, log *logger.Logger, opt ...interceptors.InterceptorOpt) *resty.Client {
	restyClient := resty.NewWithClient(client)
	interceptors.InjectInterceptors(restyClient, opt...)

	if log != nil {
		restyClient.SetLogger(log)
	}
	return restyClient
}

// NewResty builds a Resty client with default transport settings.
func NewResty(log *logger.Logger, opt ...interceptors.InterceptorOpt) *resty.Client {
	return NewRestyWithClient(&http.Client{}, log, opt...)
}
