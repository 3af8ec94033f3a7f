package logger

import (
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Error logs err under "error". A nil error yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// UserID logs the identity id under "user_id".
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// RequestID logs the request id under "request_id".
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Provider logs an OAuth provider name under "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Email logs an address with the local part masked, e.g. "a***@example.com".
func Email(addr string) slog.Attr {
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" {
		return slog.String("email", "***")
	}
	return slog.String("email", local[:1]+"***@"+domain)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Handler(name string) slog.Attr {
	return slog.String("handler", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
