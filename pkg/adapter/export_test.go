package adapter

import "net/http"

func (o *OllamaClient) HTTPClient() *http.Client { return o.client }
