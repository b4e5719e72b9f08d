package records

import (
	"github.com/shopspring/decimal"
)

// Backend table names
const (
	TableDestination      = "destination"
	TableDestinationGuide = "destination_guide"
	TableFlightBooking    = "flight_booking"
	TablePassenger        = "passenger1"
	TableTripPlan         = "trip_plan1"
)

type Destination struct {
	ID          int64   `json:"Id,omitempty"`
	Name        string  `json:"Name,omitempty"`
	Country     string  `json:"country,omitempty"`
	Continent   string  `json:"continent,omitempty"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount,omitempty"`
	Tags        string  `json:"tags,omitempty"`
}

type DestinationGuide struct {
	ID             int64  `json:"Id,omitempty"`
	Name           string `json:"Name,omitempty"`
	Destination    string `json:"destination,omitempty"`
	Country        string `json:"country,omitempty"`
	OfflineSavedAt string `json:"offline_saved_at,omitempty"`
}

type FlightBooking struct {
	ID               int64            `json:"Id,omitempty"`
	Name             string           `json:"Name,omitempty"`
	Origin           string           `json:"origin,omitempty"`
	Destination      string           `json:"destination,omitempty"`
	DepartDate       string           `json:"depart_date,omitempty"`
	ReturnDate       string           `json:"return_date,omitempty"`
	Passengers       int              `json:"passengers,omitempty"`
	TripType         string           `json:"trip_type,omitempty"`
	FlightNumber     string           `json:"flight_number,omitempty"`
	Airline          string           `json:"airline,omitempty"`
	DepartureTime    string           `json:"departure_time,omitempty"`
	ArrivalTime      string           `json:"arrival_time,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	BookingReference string           `json:"booking_reference,omitempty"`
}

type Passenger struct {
	ID             int64  `json:"Id,omitempty"`
	Name           string `json:"Name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	DOB            string `json:"dob,omitempty"`
	PassportNumber string `json:"passport_number,omitempty"`
	FlightBooking  int64  `json:"flight_booking,omitempty"`
}

type TripPlan struct {
	ID        int64  `json:"Id,omitempty"`
	Name      string `json:"Name,omitempty"`
	TripName  string `json:"trip_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

var (
	destinationFields      = []string{"Id", "Name", "country", "continent", "description", "imageUrl", "rating", "reviewCount", "tags"}
	destinationGuideFields = []string{"Id", "Name", "destination", "country", "offline_saved_at"}
	flightBookingFields    = []string{"Id", "Name", "origin", "destination", "depart_date", "return_date", "passengers", "trip_type", "flight_number", "airline", "departure_time", "arrival_time", "price", "booking_reference"}
	passengerFields        = []string{"Id", "Name", "first_name", "last_name", "dob", "passport_number", "flight_booking"}
	tripPlanFields         = []string{"Id", "Name", "trip_name", "created_at"}
)

// Services bundles one service per backend table
type Services struct {
	Destinations      *Service[Destination]
	DestinationGuides *Service[DestinationGuide]
	FlightBookings    *Service[FlightBooking]
	Passengers        *Service[Passenger]
	TripPlans         *Service[TripPlan]
}

func NewServices(client Client, log Log, observer Observer) *Services {
	return &Services{
		Destinations:      NewService[Destination](TableDestination, destinationFields, client, log, observer),
		DestinationGuides: NewService[DestinationGuide](TableDestinationGuide, destinationGuideFields, client, log, observer),
		FlightBookings:    NewService[FlightBooking](TableFlightBooking, flightBookingFields, client, log, observer),
		Passengers:        NewService[Passenger](TablePassenger, passengerFields, client, log, observer),
		TripPlans:         NewService[TripPlan](TableTripPlan, tripPlanFields, client, log, observer),
	}
}

// Tables lists the backend tables in a stable order
func Tables() []string {
	return []string{TableDestination, TableDestinationGuide, TableFlightBooking, TablePassenger, TableTripPlan}
}
