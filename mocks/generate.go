package mocks

//go:generate mockgen -destination=./mock_gateway.go -package=mocks github.com/rxtech-lab/argo-riskgate/internal/exchange Gateway
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-riskgate/internal/notifier Notifier
//go:generate mockgen -destination=./mock_ledger.go -package=mocks github.com/rxtech-lab/argo-riskgate/internal/ledger Ledger
