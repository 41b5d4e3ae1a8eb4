package item

// basicSkills is the untrained skill set every new character owns, keyed by
// name with the linked characteristic abbreviation.
var basicSkills = []struct {
	name           string
	characteristic string
}{
	{"Art", "dex"},
	{"Athletics", "ag"},
	{"Bribery", "fel"},
	{"Charm", "fel"},
	{"Charm Animal", "wp"},
	{"Climb", "s"},
	{"Cool", "wp"},
	{"Consume Alcohol", "t"},
	{"Dodge", "ag"},
	{"Drive", "ag"},
	{"Endurance", "t"},
	{"Entertain", "fel"},
	{"Gamble", "int"},
	{"Gossip", "fel"},
	{"Haggle", "fel"},
	{"Intimidate", "s"},
	{"Intuition", "i"},
	{"Leadership", "fel"},
	{"Melee (Basic)", "ws"},
	{"Navigation", "i"},
	{"Outdoor Survival", "int"},
	{"Perception", "i"},
	{"Ride", "ag"},
	{"Row", "s"},
	{"Stealth", "ag"},
}

// StarterPossessions builds the default possession set for a freshly created
// character: every basic skill at zero advances plus empty coin purses.
//
// Postcondition: Every returned possession passes Validate.
func StarterPossessions() []*Possession {
	out := make([]*Possession, 0, len(basicSkills)+3)
	for _, s := range basicSkills {
		p := New(KindSkill, s.name)
		p.Skill = &Skill{Characteristic: s.characteristic}
		out = append(out, p)
	}
	for _, coin := range []struct {
		name string
		enc  float64
	}{
		{"Gold Crown", 0.005},
		{"Silver Shilling", 0.005},
		{"Brass Penny", 0.005},
	} {
		p := New(KindTrapping, coin.name)
		p.Quantity = 0
		p.Encumbrance = coin.enc
		out = append(out, p)
	}
	return out
}
