package handlers

import "net/http"

// Set is the full route surface wired by the router.
type Set struct {
	Register      http.HandlerFunc
	Login         http.HandlerFunc
	Logout        http.HandlerFunc
	UpdateProfile http.HandlerFunc

	ListProducts  http.HandlerFunc
	GetProduct    http.HandlerFunc
	CreateProduct http.HandlerFunc

	GetCart        http.HandlerFunc
	CartCount      http.HandlerFunc
	AddToCart      http.HandlerFunc
	UpdateCartItem http.HandlerFunc
	RemoveCartItem http.HandlerFunc

	Checkout   http.HandlerFunc
	ListOrders http.HandlerFunc

	StartPayment  http.HandlerFunc
	PaymentReturn http.HandlerFunc
	PaymentCancel http.HandlerFunc
}
