package model

import (
	"fmt"
	"strconv"
	"strings"

	"fimfiction/lib/bundle"
)

const characterImageBase = "http://www.fimfiction-static.net/images/characters/"

const genericCharacterPrefix = "generic:"

// Character is a character tag of a story. Most characters are part of
// the default table, characters the site added later are generic and
// carry their fimfiction id and image in their own id.
type Character struct {
	id           string
	name         string
	fimfictionID int
	imageURL     string
}

func defaultCharacter(name string, fimfictionID int, imageID string) Character {
	return defaultCharacterWithID(imageID, name, fimfictionID, imageID)
}

func defaultCharacterWithID(id, name string, fimfictionID int, imageID string) Character {
	return Character{
		id:           id,
		name:         name,
		fimfictionID: fimfictionID,
		imageURL:     characterImageBase + imageID + ".png",
	}
}

// GenericCharacter creates a character that is not in the default table.
func GenericCharacter(fimfictionID int, imageURL string) Character {
	return Character{
		id:           fmt.Sprintf("%s%d:%s", genericCharacterPrefix, fimfictionID, imageURL),
		name:         fmt.Sprintf("Character %d", fimfictionID),
		fimfictionID: fimfictionID,
		imageURL:     imageURL,
	}
}

// parseGenericCharacter is the inverse of the id GenericCharacter builds.
func parseGenericCharacter(id string) (Character, bool) {
	rest, ok := strings.CutPrefix(id, genericCharacterPrefix)
	if !ok {
		return Character{}, false
	}
	fimID, imageURL, ok := strings.Cut(rest, ":")
	if !ok || imageURL == "" {
		return Character{}, false
	}
	n, err := strconv.Atoi(fimID)
	if err != nil {
		return Character{}, false
	}
	return GenericCharacter(n, imageURL), true
}

func (c Character) ID() string { return c.id }
func (c Character) Name() string { return c.name }
func (c Character) String() string { return c.id }
func (Character) EnumType() bundle.EnumType { return EnumCharacter }

// FimfictionID is the number the site uses for the character.
func (c Character) FimfictionID() int {
	return c.fimfictionID
}

func (c Character) ImageURL() string {
	return c.imageURL
}

func (c Character) Generic() bool {
	return strings.HasPrefix(c.id, genericCharacterPrefix)
}

// DefaultCharacters returns the table of characters known ahead of time.
func DefaultCharacters() []Character {
	return append([]Character(nil), defaultCharacters...)
}

var defaultCharacters = []Character{
	defaultCharacter("Twilight Sparkle", 7, "twilight_sparkle"),
	defaultCharacter("Rainbow Dash", 8, "rainbow_dash"),
	defaultCharacter("Pinkie Pie", 9, "pinkie_pie"),
	defaultCharacter("Applejack", 10, "applejack"),
	defaultCharacter("Rarity", 11, "rarity"),
	defaultCharacter("Fluttershy", 12, "fluttershy"),
	defaultCharacter("Spike", 16, "spike"),
	defaultCharacter("Main 6", 74, "main_6"),
	defaultCharacter("Twilicorn", 94, "twilicorn"),
	defaultCharacter("Apple Bloom", 13, "apple_bloom"),
	defaultCharacter("Scootaloo", 14, "scootaloo"),
	defaultCharacter("Sweetie Belle", 15, "sweetie_belle"),
	defaultCharacter("Cutie Mark Crusaders", 75, "cmc"),
	defaultCharacter("Babs Seed", 84, "babs_seed"),
	defaultCharacter("Princess Celestia", 17, "celestia"),
	defaultCharacter("Princess Luna", 18, "princess_luna"),
	defaultCharacter("Nightmare Moon", 54, "nightmare_moon"),
	defaultCharacter("Gilda", 19, "gilda"),
	defaultCharacter("Zecora", 20, "zecora"),
	defaultCharacter("Trixie", 21, "trixie"),
	defaultCharacter("Cherilee", 30, "cherilee"),
	defaultCharacter("The Mayor", 31, "the_mayor"),
	defaultCharacter("Hoity Toity", 32, "hoity_toity"),
	defaultCharacter("Photo Finish", 33, "photo_finish"),
	defaultCharacter("Sapphire Shores", 34, "sapphire_shores"),
	defaultCharacter("Spitfire", 35, "spitfire"),
	defaultCharacter("Soarin", 36, "soarin"),
	defaultCharacter("Prince Blueblood", 37, "prince_blueblood"),
	defaultCharacter("Little Strongheart", 38, "little_strongheart"),
	defaultCharacter("Discord", 53, "discord"),
	defaultCharacter("Mare Do Well", 58, "mare_do_well"),
	defaultCharacter("Fancypants", 60, "fancypants"),
	defaultCharacter("Daring Do", 63, "daring_do"),
	defaultCharacterWithID("flim_and_flam", "Flim and Flam", 65, "flimflam"),
	defaultCharacter("Cranky Doodle Donkey", 66, "cranky_doodle"),
	defaultCharacter("Matilda", 67, "matilda"),
	defaultCharacter("Mr. Cake", 68, "mr_cake"),
	defaultCharacter("Mrs. Cake", 69, "mrs_cake"),
	defaultCharacterWithID("iron_will", "Iron Will", 71, "ironwill"),
	defaultCharacter("Princess Cadance", 72, "cadance"),
	defaultCharacter("Shining Armor", 73, "shining_armor"),
	defaultCharacter("Wonderbolts", 76, "wonderbolts"),
	defaultCharacter("Diamond Dogs", 77, "diamond_dogs"),
	defaultCharacter("Queen Chrysalis", 78, "queen_chrysalis"),
	defaultCharacter("King Sombra", 83, "king_sombra"),
	defaultCharacter("Crystal Ponies", 86, "crystal_ponies"),
	defaultCharacter("Lightning Dust", 89, "lightning_dust"),
	defaultCharacter("Big Macintosh", 22, "big_mac"),
	defaultCharacter("Granny Smith", 23, "granny_smith"),
	defaultCharacter("Braeburn", 24, "braeburn"),
	defaultCharacter("Diamond Tiara", 25, "diamond_tiara"),
	defaultCharacter("Silver Spoon", 26, "silver_spoon"),
	defaultCharacter("Twist", 27, "twist"),
	defaultCharacter("Snips", 28, "snips"),
	defaultCharacter("Snails", 29, "snails"),
	defaultCharacter("Pipsqueak", 55, "pipsqueak"),
	defaultCharacter("Featherweight", 87, "featherweight"),
	defaultCharacter("Angel", 39, "angel"),
	defaultCharacter("Winona", 40, "winona"),
	defaultCharacter("Opalescence", 41, "opalescence"),
	defaultCharacter("Gummy", 42, "gummy"),
	defaultCharacter("Owlowiscious", 43, "owlowiscious"),
	defaultCharacter("Philomena", 44, "philomena"),
	defaultCharacter("Tank", 59, "tank"),
	defaultCharacter("Derpy Hooves", 45, "derpy_hooves"),
	defaultCharacter("Lyra", 46, "lyra"),
	defaultCharacter("Bon Bon", 47, "bon_bon"),
	defaultCharacter("DJ P0N3", 48, "dj_pon3"),
	defaultCharacter("Caramel", 50, "caramel"),
	defaultCharacter("Doctor Whooves", 51, "doctor_whooves"),
	defaultCharacter("Octavia", 52, "octavia"),
	defaultCharacter("Berry Punch", 56, "berry_punch"),
	defaultCharacter("Carrot Top", 57, "carrot_top"),
	defaultCharacter("Fleur De Lis", 61, "fleur_de_lis"),
	defaultCharacter("Colgate", 64, "colgate"),
	defaultCharacter("Dinky Hooves", 70, "dinky"),
	defaultCharacter("Thunderlane", 79, "thunderlane"),
	defaultCharacter("Flitter and Cloudchaser", 80, "flitter_and_cloudchaser"),
	defaultCharacter("Rumble", 81, "rumble"),
	defaultCharacter("Roseluck", 82, "roseluck"),
	defaultCharacter("Changelings", 85, "changelings"),
	defaultCharacter("Noteworthy", 88, "noteworthy"),
	defaultCharacter("Nurse Redheart", 90, "nurse_red_heart"),
	defaultCharacter("Flower Ponies", 91, "flower_ponies"),
	defaultCharacter("Raindrops", 92, "raindrops"),
	defaultCharacter("Spa Ponies", 93, "spa_ponies"),
	defaultCharacter("OC", 49, "oc"),
	defaultCharacter("Other", 62, "other"),
	defaultCharacter("Cake Twins", 98, "cake_twins"),
	defaultCharacter("Cherry Jubilee", 97, "cherry_jubilee"),
	defaultCharacter("Flash Sentry", 100, "flash_sentry"),
	defaultCharacter("Pie Sisters", 96, "pie_sisters"),
	defaultCharacter("Sparkler", 99, "sparkler"),
	defaultCharacter("Sunset Shimmer", 95, "sunset_shimmer"),
	defaultCharacter("Cloudkicker", 101, "cloudkicker"),
	defaultCharacterWithID("mane_iac", "Mane-iac", 102, "mane-iac"),
	defaultCharacter("Power Ponies", 103, "power_ponies"),
}
