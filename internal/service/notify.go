package service

import (
	"context"

	"github.com/utafrali/ApartmentAdmin/internal/apiclient"
)

func notifySuccess(ctx context.Context, n apiclient.Notifier, text string) {
	if n != nil && text != "" {
		n.Success(ctx, text)
	}
}

func notifyError(ctx context.Context, n apiclient.Notifier, text string) {
	if n != nil && text != "" {
		n.Error(ctx, text)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
