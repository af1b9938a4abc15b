package capability

// Alexa display categories.
var displayCategories = map[string]struct{}{
	"ACTIVITY_TRIGGER": {}, "AIR_CONDITIONER": {}, "AIR_FRESHENER": {}, "AIR_PURIFIER": {},
	"AUTO_ACCESSORY": {}, "BLUETOOTH_SPEAKER": {}, "CAMERA": {}, "CHRISTMAS_TREE": {},
	"COFFEE_MAKER": {}, "COMPUTER": {}, "CONTACT_SENSOR": {}, "DISHWASHER": {},
	"DOOR": {}, "DOORBELL": {}, "DRYER": {}, "EXTERIOR_BLIND": {},
	"FAN": {}, "GAME_CONSOLE": {}, "GARAGE_DOOR": {}, "HEADPHONES": {},
	"HUB": {}, "INTERIOR_BLIND": {}, "LAPTOP": {}, "LIGHT": {},
	"MICROWAVE": {}, "MOBILE_PHONE": {}, "MOTION_SENSOR": {}, "MUSIC_SYSTEM": {},
	"NETWORK_HARDWARE": {}, "OTHER": {}, "OVEN": {}, "PHONE": {},
	"PRINTER": {}, "ROUTER": {}, "SCENE_TRIGGER": {}, "SCREEN": {},
	"SECURITY_PANEL": {}, "SECURITY_SYSTEM": {}, "SLOW_COOKER": {}, "SMARTLOCK": {},
	"SMARTPLUG": {}, "SPEAKER": {}, "STREAMING_DEVICE": {}, "SWITCH": {},
	"TABLET": {}, "TEMPERATURE_SENSOR": {}, "THERMOSTAT": {}, "TV": {},
	"VACUUM_CLEANER": {}, "WASHER": {}, "WATER_HEATER": {}, "WEARABLE": {},
}

// IsDisplayCategory reports whether c is part of the Alexa vocabulary.
func IsDisplayCategory(c string) bool {
	_, ok := displayCategories[c]
	return ok
}
