package entities

// PlaceCategory is the caller-facing category identifier. The set is closed;
// unknown inputs fall back to CategoryRestaurant rather than failing.
type PlaceCategory string

const (
	CategoryRestaurant        PlaceCategory = "catering.restaurant"
	CategoryRestaurantPizza   PlaceCategory = "catering.restaurant.pizza"
	CategoryRestaurantItalian PlaceCategory = "catering.restaurant.italian"
	CategoryRestaurantChinese PlaceCategory = "catering.restaurant.chinese"
	CategoryRestaurantSushi   PlaceCategory = "catering.restaurant.sushi"
	CategoryCafe              PlaceCategory = "catering.cafe"
	CategoryShoppingMall      PlaceCategory = "commercial.shopping_mall"
	CategoryPark              PlaceCategory = "leisure.park"
	CategoryAttraction        PlaceCategory = "tourism.attraction"
	CategoryMuseum            PlaceCategory = "tourism.museum"
)

// placesTaxonomy maps each category to the places provider's taxonomy string.
// For Geoapify the identifiers coincide with the caller-facing ones.
var placesTaxonomy = map[PlaceCategory]string{
	CategoryRestaurant:        "catering.restaurant",
	CategoryRestaurantPizza:   "catering.restaurant.pizza",
	CategoryRestaurantItalian: "catering.restaurant.italian",
	CategoryRestaurantChinese: "catering.restaurant.chinese",
	CategoryRestaurantSushi:   "catering.restaurant.sushi",
	CategoryCafe:              "catering.cafe",
	CategoryShoppingMall:      "commercial.shopping_mall",
	CategoryPark:              "leisure.park",
	CategoryAttraction:        "tourism.attraction",
	CategoryMuseum:            "tourism.museum",
}

// ratingsTaxonomy maps each category to the ratings provider's location type.
var ratingsTaxonomy = map[PlaceCategory]string{
	CategoryRestaurant:        "restaurants",
	CategoryRestaurantPizza:   "restaurants",
	CategoryRestaurantItalian: "restaurants",
	CategoryRestaurantChinese: "restaurants",
	CategoryRestaurantSushi:   "restaurants",
	CategoryCafe:              "restaurants",
	CategoryShoppingMall:      "attractions",
	CategoryPark:              "attractions",
	CategoryAttraction:        "attractions",
	CategoryMuseum:            "attractions",
}

// ParsePlaceCategory validates a caller-supplied category identifier.
// Unknown identifiers fail closed to CategoryRestaurant.
func ParsePlaceCategory(s string) PlaceCategory {
	c := PlaceCategory(s)
	if _, ok := placesTaxonomy[c]; ok {
		return c
	}
	return CategoryRestaurant
}

// PlacesTaxonomy returns the places provider's category string.
func (c PlaceCategory) PlacesTaxonomy() string {
	if v, ok := placesTaxonomy[c]; ok {
		return v
	}
	return placesTaxonomy[CategoryRestaurant]
}

// RatingsTaxonomy returns the ratings provider's location type string.
func (c PlaceCategory) RatingsTaxonomy() string {
	if v, ok := ratingsTaxonomy[c]; ok {
		return v
	}
	return ratingsTaxonomy[CategoryRestaurant]
}

func (c PlaceCategory) String() string {
	return string(c)
}
