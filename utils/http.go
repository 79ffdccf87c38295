package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by the service-to-service clients. Calls are small
// JSON requests, so a short timeout surfaces a hung peer quickly.
var HTTPClient = &http.Client{
	Timeout: 10 * time.Second,
}
