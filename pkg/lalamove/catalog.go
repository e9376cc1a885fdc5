package lalamove

import (
	"slices"
	"sort"
)

// Market is the region tag sent with every request.
type Market string

const (
	MarketTaiwan    Market = "TW"
	MarketHongKong  Market = "HK"
	MarketSingapore Market = "SG"
)

// Language is a locale accepted for stop addresses.
type Language string

const (
	LanguageZhTW Language = "zh_TW"
	LanguageEnHK Language = "en_HK"
	LanguageZhHK Language = "zh_HK"
	LanguageEnSG Language = "en_SG"
)

// ServiceType is a vehicle class.
type ServiceType string

const (
	ServiceMotorcycle ServiceType = "MOTORCYCLE"
	ServiceCar        ServiceType = "CAR"
	ServiceMPV        ServiceType = "MPV"
	ServiceVan        ServiceType = "VAN"
	ServiceTruck175   ServiceType = "TRUCK175"
	ServiceTruck330   ServiceType = "TRUCK330"
	ServiceTruck550   ServiceType = "TRUCK550"
	ServiceLorry10    ServiceType = "LORRY10"
)

// SpecialRequest is an add-on delivery option.
type SpecialRequest string

const (
	RequestLalabag          SpecialRequest = "LALABAG"
	RequestHelpBuy          SpecialRequest = "HELP_BUY"
	RequestEnglish          SpecialRequest = "ENGLISH"
	RequestDoorToDoor       SpecialRequest = "DOOR_TO_DOOR"
	RequestThermalBag       SpecialRequest = "THERMAL_BAG"
	RequestFragile          SpecialRequest = "FRAGILE_GOODS"
	RequestMoving           SpecialRequest = "MOVING"
	RequestTailgate         SpecialRequest = "TAILGATE"
	RequestExtraHelper      SpecialRequest = "EXTRA_HELPER"
	RequestPurchaseService  SpecialRequest = "PURCHASE_SERVICE"
	RequestCashOnDelivery   SpecialRequest = "COD"
	RequestReturnTrip       SpecialRequest = "ROUND_TRIP"
	RequestPetFriendly      SpecialRequest = "PET_FRIENDLY"
	RequestHandCarry        SpecialRequest = "HAND_CARRY"
	RequestInsulatedBox     SpecialRequest = "INSULATED_BOX"
	RequestTollFeeCovered   SpecialRequest = "TOLL_FEE_COVERED"
	RequestDocumentDelivery SpecialRequest = "DOCUMENT"
)

// City is a Lalamove city locode, e.g. "TW TPE".
type City string

const (
	CityTaipei    City = "TW TPE"
	CityTaichung  City = "TW TXG"
	CityKaohsiung City = "TW KHH"
	CityHongKong  City = "HK HKG"
	CitySingapore City = "SG SIN"
)

type serviceCatalog map[ServiceType][]SpecialRequest

type marketCatalog struct {
	languages []Language
	cities    map[City]serviceCatalog
}

// catalog is built once and never mutated; accessors return copies.
var catalog = map[Market]marketCatalog{
	MarketTaiwan: {
		languages: []Language{LanguageZhTW},
		cities: map[City]serviceCatalog{
			CityTaipei: {
				ServiceMotorcycle: {RequestLalabag, RequestHelpBuy, RequestEnglish, RequestThermalBag, RequestDocumentDelivery},
				ServiceMPV:        {RequestHelpBuy, RequestEnglish, RequestDoorToDoor, RequestPetFriendly},
				ServiceVan:        {RequestEnglish, RequestDoorToDoor, RequestMoving, RequestExtraHelper},
				ServiceTruck175:   {RequestDoorToDoor, RequestMoving, RequestTailgate, RequestExtraHelper},
				ServiceTruck330:   {RequestDoorToDoor, RequestMoving, RequestTailgate, RequestExtraHelper},
			},
			CityTaichung: {
				ServiceMotorcycle: {RequestLalabag, RequestHelpBuy, RequestThermalBag},
				ServiceMPV:        {RequestHelpBuy, RequestDoorToDoor},
				ServiceVan:        {RequestDoorToDoor, RequestMoving},
				ServiceTruck175:   {RequestDoorToDoor, RequestMoving, RequestTailgate},
			},
			CityKaohsiung: {
				ServiceMotorcycle: {RequestLalabag, RequestHelpBuy},
				ServiceMPV:        {RequestDoorToDoor},
				ServiceVan:        {RequestDoorToDoor, RequestMoving},
			},
		},
	},
	MarketHongKong: {
		languages: []Language{LanguageEnHK, LanguageZhHK},
		cities: map[City]serviceCatalog{
			CityHongKong: {
				ServiceMotorcycle: {RequestPurchaseService, RequestInsulatedBox, RequestCashOnDelivery},
				ServiceCar:        {RequestPurchaseService, RequestPetFriendly, RequestHandCarry},
				ServiceVan:        {RequestMoving, RequestExtraHelper, RequestTollFeeCovered, RequestReturnTrip},
				ServiceTruck550:   {RequestMoving, RequestTailgate, RequestExtraHelper, RequestTollFeeCovered},
			},
		},
	},
	MarketSingapore: {
		languages: []Language{LanguageEnSG},
		cities: map[City]serviceCatalog{
			CitySingapore: {
				ServiceMotorcycle: {RequestThermalBag, RequestDocumentDelivery},
				ServiceCar:        {RequestFragile, RequestHandCarry},
				ServiceVan:        {RequestFragile, RequestDoorToDoor, RequestExtraHelper},
				ServiceLorry10:    {RequestDoorToDoor, RequestTailgate, RequestExtraHelper, RequestMoving},
			},
		},
	},
}

// Markets returns all markets in the catalog, sorted.
func Markets() []Market {
	markets := make([]Market, 0, len(catalog))
	for m := range catalog {
		markets = append(markets, m)
	}
	sort.Slice(markets, func(i, j int) bool { return markets[i] < markets[j] })
	return markets
}

// KnownMarket reports whether m is in the catalog.
func KnownMarket(m Market) bool {
	_, ok := catalog[m]
	return ok
}

// Languages returns the address languages accepted in m.
func Languages(m Market) []Language {
	return slices.Clone(catalog[m].languages)
}

// SupportsLanguage reports whether lang is accepted in m.
func SupportsLanguage(m Market, lang Language) bool {
	return slices.Contains(catalog[m].languages, lang)
}

// Cities returns the catalogued cities of m, sorted.
func Cities(m Market) []City {
	mc := catalog[m]
	cities := make([]City, 0, len(mc.cities))
	for c := range mc.cities {
		cities = append(cities, c)
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i] < cities[j] })
	return cities
}

// ServiceTypes returns the vehicle classes offered anywhere in m, sorted.
func ServiceTypes(m Market) []ServiceType {
	seen := map[ServiceType]struct{}{}
	for _, services := range catalog[m].cities {
		for st := range services {
			seen[st] = struct{}{}
		}
	}
	types := make([]ServiceType, 0, len(seen))
	for st := range seen {
		types = append(types, st)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SupportsServiceType reports whether st is offered in m, and in city when
// city is not empty.
func SupportsServiceType(m Market, city City, st ServiceType) bool {
	mc := catalog[m]
	if city != "" {
		_, ok := mc.cities[city][st]
		return ok
	}
	for _, services := range mc.cities {
		if _, ok := services[st]; ok {
			return true
		}
	}
	return false
}

// SpecialRequests returns the add-ons allowed for st in city.
func SpecialRequests(m Market, city City, st ServiceType) []SpecialRequest {
	return slices.Clone(catalog[m].cities[city][st])
}
