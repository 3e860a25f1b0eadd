// Package taxonomy maps free-text detector labels onto a closed set of categories.
//
// All label knowledge lives in the static table below. Lookup tries the whole
// identifier first, then its singular form, then the head noun (the last word),
// so "sports car" resolves through "car" and "golden retriever" through "retriever".
package taxonomy

import (
	"sort"
	"strings"
)

// Category is the closed set of identifier categories
type Category int

const (
	Unknown Category = iota
	Person
	Vehicle
	Animal
	Food
	Plant
	Electronics
	Furniture
	Document
	Clothing
	Structure
	Scene
	Background
)

var categoryNames = map[Category]string{
	Unknown:     "unknown",
	Person:      "person",
	Vehicle:     "vehicle",
	Animal:      "animal",
	Food:        "food",
	Plant:       "plant",
	Electronics: "electronics",
	Furniture:   "furniture",
	Document:    "document",
	Clothing:    "clothing",
	Structure:   "structure",
	Scene:       "scene",
	Background:  "background",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// Categories returns every known category except Unknown, in declaration order
func Categories() []Category {
	return []Category{Person, Vehicle, Animal, Food, Plant, Electronics, Furniture, Document, Clothing, Structure, Scene, Background}
}

// Ranking groups used when ordering fused classifications
const (
	GroupPrimary    = 0 // people and vehicles
	GroupObject     = 1
	GroupBackground = 2 // scenes and background terms
)

// Group returns the ordering group of a category
func (c Category) Group() int {
	switch c {
	case Person, Vehicle:
		return GroupPrimary
	case Scene, Background:
		return GroupBackground
	default:
		return GroupObject
	}
}

var table = map[string]Category{
	// people
	"person": Person, "people": Person, "human": Person, "face": Person,
	"portrait": Person, "selfie": Person, "man": Person, "woman": Person,
	"men": Person, "women": Person, "boy": Person, "girl": Person,
	"child": Person, "children": Person, "kid": Person, "baby": Person,
	"toddler": Person, "adult": Person, "crowd": Person, "group of people": Person,
	"pedestrian": Person, "head": Person, "smile": Person,

	// vehicles
	"vehicle": Vehicle, "car": Vehicle, "truck": Vehicle, "bus": Vehicle,
	"van": Vehicle, "motorcycle": Vehicle, "motorbike": Vehicle, "bicycle": Vehicle,
	"bike": Vehicle, "scooter": Vehicle, "train": Vehicle, "tram": Vehicle,
	"boat": Vehicle, "ship": Vehicle, "airplane": Vehicle, "aeroplane": Vehicle,
	"aircraft": Vehicle, "helicopter": Vehicle, "taxi": Vehicle, "suv": Vehicle,
	"automobile": Vehicle, "sedan": Vehicle, "convertible": Vehicle, "tractor": Vehicle,
	"pickup": Vehicle, "jeep": Vehicle,

	// animals
	"animal": Animal, "pet": Animal, "dog": Animal, "puppy": Animal,
	"cat": Animal, "kitten": Animal, "bird": Animal, "horse": Animal,
	"cow": Animal, "sheep": Animal, "elephant": Animal, "bear": Animal,
	"zebra": Animal, "giraffe": Animal, "fish": Animal, "retriever": Animal,
	"terrier": Animal, "spaniel": Animal, "poodle": Animal, "labrador": Animal,
	"rabbit": Animal, "squirrel": Animal, "duck": Animal, "insect": Animal,
	"butterfly": Animal, "wildlife": Animal, "mammal": Animal,

	// food
	"food": Food, "meal": Food, "dish": Food, "pizza": Food,
	"sandwich": Food, "cake": Food, "dessert": Food, "salad": Food,
	"fruit": Food, "apple": Food, "banana": Food, "orange": Food,
	"broccoli": Food, "carrot": Food, "hot dog": Food, "donut": Food,
	"burger": Food, "hamburger": Food, "pasta": Food, "soup": Food,
	"bread": Food, "sushi": Food, "coffee": Food, "drink": Food,
	"breakfast": Food, "lunch": Food, "dinner": Food, "cuisine": Food,

	// plants
	"plant": Plant, "potted plant": Plant, "flower": Plant, "tree": Plant,
	"leaf": Plant, "leaves": Plant, "bush": Plant, "cactus": Plant,
	"succulent": Plant, "rose": Plant, "sunflower": Plant,

	// electronics
	"laptop": Electronics, "computer": Electronics, "keyboard": Electronics, "mouse": Electronics,
	"monitor": Electronics, "tv": Electronics, "television": Electronics, "phone": Electronics,
	"cell phone": Electronics, "smartphone": Electronics, "tablet": Electronics, "camera": Electronics,
	"remote": Electronics, "headphones": Electronics, "microwave": Electronics, "screen": Electronics,

	// furniture and household items
	"chair": Furniture, "couch": Furniture, "sofa": Furniture, "bed": Furniture,
	"table": Furniture, "dining table": Furniture, "desk": Furniture, "bench": Furniture,
	"shelf": Furniture, "cabinet": Furniture, "lamp": Furniture, "seat": Furniture,
	"cup": Furniture, "mug": Furniture, "bottle": Furniture, "wine glass": Furniture,
	"fork": Furniture, "knife": Furniture, "spoon": Furniture, "bowl": Furniture,
	"vase": Furniture, "clock": Furniture, "book": Furniture, "umbrella": Furniture,
	"guitar": Furniture, "piano": Furniture, "ball": Furniture, "sports ball": Furniture,
	"tennis racket": Furniture, "racket": Furniture, "skateboard": Furniture, "surfboard": Furniture,
	"skis": Furniture, "frisbee": Furniture, "kite": Furniture, "toy": Furniture,

	// documents and screens of text
	"document": Document, "paper": Document, "receipt": Document, "letter": Document,
	"page": Document, "text": Document, "menu": Document, "invoice": Document,
	"form": Document, "newspaper": Document, "poster": Document, "sign": Document,
	"handwriting": Document, "whiteboard": Document, "screenshot": Document, "website": Document,
	"web site": Document, "user interface": Document, "chart": Document, "diagram": Document,

	// clothing and accessories
	"clothing": Clothing, "clothes": Clothing, "garment": Clothing, "apparel": Clothing,
	"shirt": Clothing, "t-shirt": Clothing, "jacket": Clothing, "coat": Clothing,
	"dress": Clothing, "skirt": Clothing, "jeans": Clothing, "pants": Clothing,
	"trousers": Clothing, "shoe": Clothing, "shoes": Clothing, "sneaker": Clothing,
	"boot": Clothing, "hat": Clothing, "cap": Clothing, "helmet": Clothing,
	"eyewear": Clothing, "glasses": Clothing, "sunglasses": Clothing, "goggles": Clothing,
	"tie": Clothing, "scarf": Clothing, "glove": Clothing, "sock": Clothing,
	"handbag": Clothing, "backpack": Clothing, "bag": Clothing, "watch": Clothing,
	"jewelry": Clothing, "necklace": Clothing, "earring": Clothing, "accessory": Clothing,
	"sleeve": Clothing, "collar": Clothing, "outerwear": Clothing, "footwear": Clothing,

	// built structures
	"building": Structure, "house": Structure, "bridge": Structure, "tower": Structure,
	"church": Structure, "castle": Structure, "skyscraper": Structure, "monument": Structure,
	"statue": Structure, "architecture": Structure, "fence": Structure, "wall": Structure,
	"door": Structure, "window": Structure, "stadium": Structure, "temple": Structure,

	// scenes
	"beach": Scene, "coast": Scene, "ocean": Scene, "sea": Scene,
	"lake": Scene, "river": Scene, "waterfall": Scene, "mountain": Scene,
	"forest": Scene, "woods": Scene, "desert": Scene, "snow": Scene,
	"city": Scene, "cityscape": Scene, "street": Scene, "road": Scene,
	"park": Scene, "garden": Scene, "countryside": Scene, "landscape": Scene,
	"sunset": Scene, "sunrise": Scene, "night": Scene, "indoor": Scene,
	"indoors": Scene, "interior": Scene, "room": Scene, "kitchen": Scene,
	"living room": Scene, "bedroom": Scene, "office": Scene, "restaurant": Scene,
	"classroom": Scene, "stage": Scene, "concert": Scene, "underwater": Scene,
	"water": Scene, "valley": Scene, "canyon": Scene, "island": Scene,

	// background terms
	"sky": Background, "cloud": Background, "clouds": Background, "cloudy": Background,
	"ground": Background, "grass": Background, "lawn": Background, "field": Background,
	"meadow": Background, "scenery": Background, "nature": Background, "environment": Background,
	"horizon": Background, "land": Background, "terrain": Background, "outdoor": Background,
	"outdoors": Background, "outside": Background, "background": Background, "floor": Background,
	"soil": Background, "dirt": Background, "blue sky": Background, "daylight": Background,
}

// Lookup returns the category of an identifier, or Unknown
func Lookup(identifier string) Category {
	id := normalize(identifier)
	if id == "" {
		return Unknown
	}
	if c, ok := lookupWord(id); ok {
		return c
	}
	words := strings.Fields(id)
	for i := len(words) - 1; i >= 0 && len(words) > 1; i-- {
		if c, ok := lookupWord(words[i]); ok {
			return c
		}
	}
	return Unknown
}

func lookupWord(w string) (Category, bool) {
	if c, ok := table[w]; ok {
		return c, true
	}
	for _, singular := range singulars(w) {
		if c, ok := table[singular]; ok {
			return c, true
		}
	}
	return Unknown, false
}

func singulars(w string) []string {
	var out []string
	switch {
	case strings.HasSuffix(w, "ies") && len(w) > 4:
		out = append(out, w[:len(w)-3]+"y")
	case strings.HasSuffix(w, "es") && len(w) > 3:
		out = append(out, w[:len(w)-2], w[:len(w)-1])
	case strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") && len(w) > 2:
		out = append(out, w[:len(w)-1])
	}
	return out
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Is reports whether the identifier belongs to the category
func Is(identifier string, c Category) bool {
	return Lookup(identifier) == c
}

// IsPerson reports whether the identifier names a person, face or portrait
func IsPerson(identifier string) bool { return Is(identifier, Person) }

// IsVehicle reports whether the identifier names a vehicle
func IsVehicle(identifier string) bool { return Is(identifier, Vehicle) }

// IsBackground reports whether the identifier is a background-only term
func IsBackground(identifier string) bool { return Is(identifier, Background) }

// IsClothing reports whether the identifier names clothing or an accessory
func IsClothing(identifier string) bool { return Is(identifier, Clothing) }

// Terms returns the sorted table entries of a category
func Terms(c Category) []string {
	var terms []string
	for term, cat := range table {
		if cat == c {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	return terms
}
