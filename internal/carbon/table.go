package carbon

// emissionsTable holds typical cradle-to-retail CO2e figures per kg of
// product. Values follow published life-cycle assessment averages
// (Poore & Nemecek and similar datasets). Order matters: Lookup returns
// the first match, so more specific entries come before generic ones.
var emissionsTable = []entry{
	// Fruit
	{"apple", 0.35, "fruit"},
	{"banana", 0.7, "fruit"},
	{"orange", 0.4, "fruit"},
	{"strawberr", 1.1, "fruit"}, // matches strawberry/strawberries
	{"blueberr", 1.0, "fruit"},
	{"grape", 1.1, "fruit"},
	{"avocado", 2.5, "fruit"},
	{"mango", 1.2, "fruit"},
	{"pineapple", 0.9, "fruit"},
	{"peach", 0.6, "fruit"},
	{"pear", 0.4, "fruit"},
	{"lemon", 0.5, "fruit"},
	{"watermelon", 0.6, "fruit"},
	{"kiwi", 0.8, "fruit"},

	// Vegetables
	{"tomato", 1.4, "vegetable"},
	{"potato", 0.3, "vegetable"},
	{"carrot", 0.3, "vegetable"},
	{"broccoli", 0.9, "vegetable"},
	{"cauliflower", 0.9, "vegetable"},
	{"spinach", 0.5, "vegetable"},
	{"lettuce", 0.5, "vegetable"},
	{"cucumber", 0.7, "vegetable"},
	{"onion", 0.3, "vegetable"},
	{"pepper", 1.3, "vegetable"},
	{"mushroom", 1.3, "vegetable"},
	{"cabbage", 0.4, "vegetable"},
	{"corn", 0.7, "vegetable"},
	{"zucchini", 0.6, "vegetable"},
	{"eggplant", 0.7, "vegetable"},

	// Meat and seafood
	{"beef", 27.0, "meat"},
	{"lamb", 24.0, "meat"},
	{"pork", 7.2, "meat"},
	{"chicken", 6.9, "meat"},
	{"turkey", 7.4, "meat"},
	{"salmon", 5.1, "seafood"},
	{"tuna", 4.6, "seafood"},
	{"shrimp", 12.0, "seafood"},
	{"cod", 3.5, "seafood"},

	// Dairy and eggs
	{"cheese", 13.5, "dairy"},
	{"butter", 9.0, "dairy"},
	{"milk", 3.0, "dairy"},
	{"yogurt", 2.2, "dairy"},
	{"egg", 4.5, "dairy"},

	// Grains and pantry
	{"bread", 1.3, "grain"},
	{"rice", 4.0, "grain"},
	{"pasta", 1.2, "grain"},
	{"oat", 0.9, "grain"},
	{"tofu", 2.0, "pantry"},
	{"lentil", 0.9, "pantry"},
	{"bean", 0.8, "pantry"},
	{"chocolate", 19.0, "pantry"},
	{"coffee", 17.0, "beverage"},
	{"nut", 1.5, "pantry"},
}
