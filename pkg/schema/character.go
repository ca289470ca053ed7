package schema

import "fmt"

// Character is one selectable roster entry. Values are copied, never mutated in place.
type Character struct {
	Name      string `json:"name" jsonschema:"minLength=1" jsonschema_description:"Unique key used by the selector"`
	ImagePath string `json:"image_path,omitempty" jsonschema_description:"Portrait file name, resolved against the assets directory"`
	Skill     int    `json:"skill" jsonschema:"minimum=0" jsonschema_description:"Skill stat"`
	Luck      int    `json:"luck" jsonschema:"minimum=0" jsonschema_description:"Luck stat"`
	Stamina   int    `json:"stamina" jsonschema:"minimum=0" jsonschema_description:"Stamina stat"`
}

func (c Character) String() string {
	return fmt.Sprintf("Character(name='%s', image_path='%s', skill=%d, luck=%d, stamina=%d)",
		c.Name, c.ImagePath, c.Skill, c.Luck, c.Stamina)
}

// Equal reports whether every field matches.
func (c Character) Equal(o Character) bool {
	return c == o
}

// Stat is a labelled value shown in the stat panel.
type Stat struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

func (c Character) Stats() []Stat {
	return []Stat{
		{Label: "Skill", Value: c.Skill},
		{Label: "Luck", Value: c.Luck},
		{Label: "Stamina", Value: c.Stamina},
	}
}
