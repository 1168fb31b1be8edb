package cache

import "fmt"

// ErrorLogPayloadPrefix prefixes every cached error log payload.
const ErrorLogPayloadPrefix = "errorlog:payload:"

func ErrorLogPayloadKey(jobID int64) string {
	return fmt.Sprintf("%s%d", ErrorLogPayloadPrefix, jobID)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}
