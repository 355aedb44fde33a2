package repository

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/surojit-ghosh/url-shortener/internal/repository")
