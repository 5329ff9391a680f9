package constants

// Permission names carried in JWT claims.
const (
	PermAny            = "any"
	PermCustomer       = "customer.has.full"
	PermBookingManage  = "booking.manage"
	PermDepartureAdmin = "departure.admin"
	PermLoyaltyAdmin   = "loyalty.admin"
)
