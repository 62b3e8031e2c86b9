package usecase

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/iho/smsledger/internal/usecase ProviderGateway,ClaimStore
