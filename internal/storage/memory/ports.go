package memory

import (
	cartports "github.com/jcmexdev/shopkit/internal/cart/ports"
	catalogports "github.com/jcmexdev/shopkit/internal/catalog/ports"
	orderports "github.com/jcmexdev/shopkit/internal/order/ports"
	stockports "github.com/jcmexdev/shopkit/internal/stock/ports"
)

// Ensure Store implements every port at compile time.
var (
	_ catalogports.Repository = (*Store)(nil)
	_ stockports.Repository   = (*Store)(nil)
	_ stockports.Resolver     = (*Store)(nil)
	_ cartports.Repository    = (*Store)(nil)
	_ orderports.Repository   = (*Store)(nil)
)
