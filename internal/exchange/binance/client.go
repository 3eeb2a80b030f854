package binance

import (
	"context"

	gobinance "github.com/adshao/go-binance/v2"
)

// Each go-binance service the gateway uses is hidden behind an interface so tests can replace it.

type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side gobinance.SideType) CreateOrderService
	Type(orderType gobinance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif gobinance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*gobinance.CreateOrderResponse, error)
}

type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrigClientOrderID(id string) GetOrderService
	Do(ctx context.Context) (*gobinance.Order, error)
}

type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*gobinance.CancelOrderResponse, error)
}

type GetAccountService interface {
	Do(ctx context.Context) (*gobinance.Account, error)
}

type ListBookTickersService interface {
	Symbol(symbol string) ListBookTickersService
	Do(ctx context.Context) ([]*gobinance.BookTicker, error)
}

type ListPricesService interface {
	Symbol(symbol string) ListPricesService
	Do(ctx context.Context) ([]*gobinance.SymbolPrice, error)
}

// Client creates the services the gateway calls.
type Client interface {
	NewCreateOrderService() CreateOrderService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewGetAccountService() GetAccountService
	NewListBookTickersService() ListBookTickersService
	NewListPricesService() ListPricesService
}

type realClient struct {
	client *gobinance.Client
}

func (c *realClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: c.client.NewCreateOrderService()}
}

func (c *realClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: c.client.NewGetOrderService()}
}

func (c *realClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: c.client.NewCancelOrderService()}
}

func (c *realClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: c.client.NewGetAccountService()}
}

func (c *realClient) NewListBookTickersService() ListBookTickersService {
	return &realListBookTickersService{service: c.client.NewListBookTickersService()}
}

func (c *realClient) NewListPricesService() ListPricesService {
	return &realListPricesService{service: c.client.NewListPricesService()}
}

type realCreateOrderService struct {
	service *gobinance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side gobinance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType gobinance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif gobinance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*gobinance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *gobinance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrigClientOrderID(id string) GetOrderService {
	s.service = s.service.OrigClientOrderID(id)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*gobinance.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *gobinance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*gobinance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *gobinance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*gobinance.Account, error) {
	return s.service.Do(ctx)
}

type realListBookTickersService struct {
	service *gobinance.ListBookTickersService
}

func (s *realListBookTickersService) Symbol(symbol string) ListBookTickersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListBookTickersService) Do(ctx context.Context) ([]*gobinance.BookTicker, error) {
	return s.service.Do(ctx)
}

type realListPricesService struct {
	service *gobinance.ListPricesService
}

func (s *realListPricesService) Symbol(symbol string) ListPricesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListPricesService) Do(ctx context.Context) ([]*gobinance.SymbolPrice, error) {
	return s.service.Do(ctx)
}
