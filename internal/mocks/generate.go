// Package mocks provides gomock implementations of the batch engine's collaborator interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	scorer := mocks.NewMockScorer(ctrl)
//	scorer.EXPECT().Score(gomock.Any(), gomock.Len(3)).Return(preds, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=scorer_mock.go github.com/kiranshivaraju/fraudbatch/internal/batch Scorer
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=prediction_sink_mock.go github.com/kiranshivaraju/fraudbatch/internal/batch PredictionSink
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=alerter_mock.go github.com/kiranshivaraju/fraudbatch/internal/batch Alerter
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=status_publisher_mock.go github.com/kiranshivaraju/fraudbatch/internal/batch StatusPublisher
