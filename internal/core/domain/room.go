package domain

// RoomName identifies an implicit subscriber set. Rooms are never created or
// destroyed explicitly; membership is derived from role at connect time plus
// explicit joins, and lasts only as long as the connection.
type RoomName string

const (
	RoomAllStaff  RoomName = "all_staff"
	RoomAdmin     RoomName = "admin"
	RoomOrders    RoomName = "orders"
	RoomTables    RoomName = "tables"
	RoomKitchen   RoomName = "kitchen"
	RoomInventory RoomName = "inventory"
)
