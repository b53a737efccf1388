// Package reward models what a wheel slice pays out and the ledger that holds
// a session's winnings until they are collected or lost.
package reward

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("unknown reward kind")

// Kind discriminates the reward variants.
type Kind int

const (
	Cash Kind = iota
	Points
	Gold
	Armor
	Weapon
	Chest
	Consumable
	RandomItem
)

var kindNames = map[Kind]string{
	Cash:       "cash",
	Points:     "points",
	Gold:       "gold",
	Armor:      "armor",
	Weapon:     "weapon",
	Chest:      "chest",
	Consumable: "consumable",
	RandomItem: "random_item",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a config string ("cash", "random_item", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// PointsType is the weapon class a Points reward is earned for.
type PointsType int

const (
	GenericPoints PointsType = iota
	PistolPoints
	RiflePoints
	ShotgunPoints
)

// ParsePointsType accepts "", "generic", "pistol", "rifle", "shotgun".
func ParsePointsType(s string) (PointsType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic":
		return GenericPoints, nil
	case "pistol":
		return PistolPoints, nil
	case "rifle":
		return RiflePoints, nil
	case "shotgun":
		return ShotgunPoints, nil
	default:
		return 0, fmt.Errorf("unknown points type %q", s)
	}
}

// PointsTypeFromIcon recognizes the points class from an icon identity such as
// "ui_icon_points_rifle". Unrecognized icons are generic.
func PointsTypeFromIcon(icon string) PointsType {
	icon = strings.ToLower(icon)
	switch {
	case strings.Contains(icon, "pistol"):
		return PistolPoints
	case strings.Contains(icon, "rifle"):
		return RiflePoints
	case strings.Contains(icon, "shotgun"):
		return ShotgunPoints
	default:
		return GenericPoints
	}
}

// Item is one entry of a random item pool.
type Item struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Spec is the configured payout of a slice.
type Spec struct {
	Kind        Kind
	Name        string
	Icon        string
	Description string
	Amount      int
	Points      PointsType // Points only; GenericPoints defers to the icon
	Pool        []Item     // RandomItem only
}

// Picker draws an index; wheel.RandomSource satisfies it.
type Picker interface {
	UniformInt(lo, hi int) int
}

// Instantiate captures the spec as an immutable record. RandomItem specs draw
// their item now; an empty pool yields a record without an item, which fails
// validation at claim time.
func (s Spec) Instantiate(p Picker) Record {
	r := Record{
		Kind:        s.Kind,
		Name:        s.Name,
		Icon:        s.Icon,
		Description: s.Description,
		Amount:      s.Amount,
		Points:      s.Points,
	}
	if s.Kind == RandomItem {
		r.Amount = 0
		if len(s.Pool) > 0 && p != nil {
			it := s.Pool[p.UniformInt(0, len(s.Pool)-1)]
			r.Item = &it
			if it.Icon != "" {
				r.Icon = it.Icon
			}
		}
	}
	return r
}

// Record is a reward won on one spin.
type Record struct {
	Kind        Kind       `json:"kind"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon,omitempty"`
	Description string     `json:"description,omitempty"`
	Amount      int        `json:"amount"`
	Points      PointsType `json:"points_type,omitempty"`
	Item        *Item      `json:"item,omitempty"`
}

// Valid reports whether the record can be claimed.
func (r Record) Valid() bool {
	if r.Kind == RandomItem {
		return r.Item != nil
	}
	return r.Amount > 0
}

func plural(n int, word string) string {
	if n > 1 {
		return fmt.Sprintf("%d %ss", n, word)
	}
	return fmt.Sprintf("%d %s", n, word)
}

// DisplayText is the short label shown for the record.
func (r Record) DisplayText() string {
	switch r.Kind {
	case Cash:
		return fmt.Sprintf("%d Cash", r.Amount)
	case Gold:
		return fmt.Sprintf("%d Gold", r.Amount)
	case Armor:
		return fmt.Sprintf("%d Armor", r.Amount)
	case Points:
		return plural(r.Amount, "Point")
	case Weapon:
		return plural(r.Amount, "Weapon")
	case Chest:
		return plural(r.Amount, "Chest")
	case Consumable:
		return plural(r.Amount, "Consumable")
	case RandomItem:
		if r.Item != nil {
			return "Item: " + r.Item.Name
		}
		return "Random Item"
	default:
		return r.Name
	}
}

// Inventory keys. These strings are persisted; do not rename.
const (
	KeyCash          = "Cash"
	KeyPistolPoints  = "Pistol Points"
	KeyRiflePoints   = "Rifle Points"
	KeyShotgunPoints = "Shotgun Points"
	KeyPoints        = "Points"
	KeyGold          = "Gold"
	KeyArmor         = "Armor"
	KeyWeapon        = "Weapon"
	KeyChest         = "Chest"
	KeyConsumable    = "Consumable"
)

// InventoryKeys lists every key a record can be persisted under.
var InventoryKeys = []string{
	KeyCash, KeyPistolPoints, KeyRiflePoints, KeyShotgunPoints, KeyPoints,
	KeyGold, KeyArmor, KeyWeapon, KeyChest, KeyConsumable,
}

var kindKeys = map[Kind]string{
	Cash:       KeyCash,
	Gold:       KeyGold,
	Armor:      KeyArmor,
	Weapon:     KeyWeapon,
	Chest:      KeyChest,
	Consumable: KeyConsumable,
}

var pointsKeys = map[PointsType]string{
	GenericPoints: KeyPoints,
	PistolPoints:  KeyPistolPoints,
	RiflePoints:   KeyRiflePoints,
	ShotgunPoints: KeyShotgunPoints,
}

// InventoryKey returns the persistence key of the record. RandomItem records
// have none.
func (r Record) InventoryKey() (string, bool) {
	if r.Kind == Points {
		pt := r.Points
		if pt == GenericPoints {
			pt = PointsTypeFromIcon(r.Icon)
		}
		return pointsKeys[pt], true
	}
	k, ok := kindKeys[r.Kind]
	return k, ok
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

func (p PointsType) String() string {
	switch p {
	case PistolPoints:
		return "pistol"
	case RiflePoints:
		return "rifle"
	case ShotgunPoints:
		return "shotgun"
	default:
		return "generic"
	}
}

func (p PointsType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PointsType) UnmarshalText(b []byte) error {
	v, err := ParsePointsType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
