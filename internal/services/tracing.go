package services

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/yungbote/contentstream-backend/internal/services")
