package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_http_client.go -package=mocks github.com/rxtech-lab/argo-quotes/pkg/marketdata/provider HTTPClient
//go:generate mockgen -destination=./mock_writer.go -package=mocks github.com/rxtech-lab/argo-quotes/pkg/marketdata/writer MarketDataWriter
