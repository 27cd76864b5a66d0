package handlers

import (
	intconfig "busbook/internal/config"
	"busbook/internal/pusher"
	"busbook/internal/services"
)

var (
	env        intconfig.Env
	dispatcher *pusher.Dispatcher
)

// Configure stores the runtime wiring the handlers construct services from.
func Configure(e intconfig.Env, d *pusher.Dispatcher) {
	env = e
	dispatcher = d
}

func inventoryService() services.InventoryService {
	return services.InventoryService{
		SeatMode:       env.SeatMode,
		ReserveTimeout: env.ReserveTimeout,
	}
}

func bookingService() services.BookingService {
	return services.BookingService{
		Inventory:  inventoryService(),
		Dispatcher: dispatcher,
	}
}

func busService() services.BusService {
	return services.BusService{Dispatcher: dispatcher}
}

func docsService() services.DocsService {
	return services.DocsService{}
}
