// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package superio

import (
	"fmt"
	"slices"
)

// Chip identifies a Super-I/O model. The value is the chip ID as read
// from configuration registers 0x20/0x21 (for Winbond and Nuvoton
// parts, the revision's low nibble is masked off).
type Chip uint16

const (
	Unknown Chip = 0

	F71858   Chip = 0x0507
	F71862   Chip = 0x0601
	F71869   Chip = 0x0814
	F71882   Chip = 0x0541
	F71889AD Chip = 0x1005
	F71889ED Chip = 0x0909
	F71889F  Chip = 0x0723

	IT8705F Chip = 0x8705
	IT8712F Chip = 0x8712
	IT8716F Chip = 0x8716
	IT8718F Chip = 0x8718
	IT8720F Chip = 0x8720
	IT8721F Chip = 0x8721
	IT8726F Chip = 0x8726
	IT8728F Chip = 0x8728
	IT8771E Chip = 0x8771
	IT8772E Chip = 0x8772

	NCT6771F Chip = 0xB470
	NCT6776F Chip = 0xC330

	W83627DHG  Chip = 0xA020
	W83627DHGP Chip = 0xB070
	W83627EHF  Chip = 0x8800
	W83627HF   Chip = 0x5200
	W83627THF  Chip = 0x8280
	W83667HG   Chip = 0xA510
	W83667HGB  Chip = 0xB350
	W83687THF  Chip = 0x8541
)

// Family selects the register access scheme and decode logic.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyWinbond
	FamilyNuvoton
	FamilyITE
	FamilyFintek
)

func (f Family) String() string {
	switch f {
	case FamilyWinbond:
		return "Winbond"
	case FamilyNuvoton:
		return "Nuvoton"
	case FamilyITE:
		return "ITE"
	case FamilyFintek:
		return "Fintek"
	default:
		return "Unknown"
	}
}

var chipInfo = map[Chip]struct {
	name   string
	family Family
}{
	F71858:     {"Fintek F71858", FamilyFintek},
	F71862:     {"Fintek F71862", FamilyFintek},
	F71869:     {"Fintek F71869", FamilyFintek},
	F71882:     {"Fintek F71882", FamilyFintek},
	F71889AD:   {"Fintek F71889AD", FamilyFintek},
	F71889ED:   {"Fintek F71889ED", FamilyFintek},
	F71889F:    {"Fintek F71889F", FamilyFintek},
	IT8705F:    {"ITE IT8705F", FamilyITE},
	IT8712F:    {"ITE IT8712F", FamilyITE},
	IT8716F:    {"ITE IT8716F", FamilyITE},
	IT8718F:    {"ITE IT8718F", FamilyITE},
	IT8720F:    {"ITE IT8720F", FamilyITE},
	IT8721F:    {"ITE IT8721F", FamilyITE},
	IT8726F:    {"ITE IT8726F", FamilyITE},
	IT8728F:    {"ITE IT8728F", FamilyITE},
	IT8771E:    {"ITE IT8771E", FamilyITE},
	IT8772E:    {"ITE IT8772E", FamilyITE},
	NCT6771F:   {"Nuvoton NCT6771F", FamilyNuvoton},
	NCT6776F:   {"Nuvoton NCT6776F", FamilyNuvoton},
	W83627DHG:  {"Winbond W83627DHG", FamilyWinbond},
	W83627DHGP: {"Winbond W83627DHG-P", FamilyWinbond},
	W83627EHF:  {"Winbond W83627EHF", FamilyWinbond},
	W83627HF:   {"Winbond W83627HF", FamilyWinbond},
	W83627THF:  {"Winbond W83627THF", FamilyWinbond},
	W83667HG:   {"Winbond W83667HG", FamilyWinbond},
	W83667HGB:  {"Winbond W83667HG-B", FamilyWinbond},
	W83687THF:  {"Winbond W83687THF", FamilyWinbond},
}

// Name is the marketing name, for example "Winbond W83627DHG".
func (c Chip) Name() string {
	if info, ok := chipInfo[c]; ok {
		return info.name
	}
	return "Unknown"
}

// Family returns the register family of the chip.
func (c Chip) Family() Family {
	return chipInfo[c].family
}

// String is the lowercase constant name used in identifiers, for
// example "w83627dhg".
func (c Chip) String() string {
	if _, ok := chipInfo[c]; !ok {
		return fmt.Sprintf("unknown%04x", uint16(c))
	}
	return chipSlugs[c]
}

var chipSlugs = map[Chip]string{
	F71858: "f71858", F71862: "f71862", F71869: "f71869", F71882: "f71882",
	F71889AD: "f71889ad", F71889ED: "f71889ed", F71889F: "f71889f",
	IT8705F: "it8705f", IT8712F: "it8712f", IT8716F: "it8716f", IT8718F: "it8718f",
	IT8720F: "it8720f", IT8721F: "it8721f", IT8726F: "it8726f", IT8728F: "it8728f",
	IT8771E: "it8771e", IT8772E: "it8772e",
	NCT6771F: "nct6771f", NCT6776F: "nct6776f",
	W83627DHG: "w83627dhg", W83627DHGP: "w83627dhgp", W83627EHF: "w83627ehf",
	W83627HF: "w83627hf", W83627THF: "w83627thf", W83667HG: "w83667hg",
	W83667HGB: "w83667hgb", W83687THF: "w83687thf",
}

// Chips returns every supported chip model in ascending ID order.
func Chips() []Chip {
	chips := make([]Chip, 0, len(chipInfo))
	for chip := range chipInfo {
		chips = append(chips, chip)
	}
	slices.Sort(chips)
	return chips
}
