package ports

import (
	"context"

	"github.com/aretw0/fullform/pkg/domain"
)

// AnswerTransport sends answer notifications to the form server.
// The returned response, if any, is applied back to the originating session.
type AnswerTransport interface {
	SendAnswer(ctx context.Context, evt domain.AnswerEvent) (*domain.Response, error)
}

// AnswerTransportFunc adapts a function to AnswerTransport.
type AnswerTransportFunc func(ctx context.Context, evt domain.AnswerEvent) (*domain.Response, error)

func (f AnswerTransportFunc) SendAnswer(ctx context.Context, evt domain.AnswerEvent) (*domain.Response, error) {
	return f(ctx, evt)
}
