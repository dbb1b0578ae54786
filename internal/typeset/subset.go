package typeset

import (
	"encoding/binary"
	"fmt"
	"sort"

	"golang.org/x/image/font/sfnt"
)

// SubsetFont returns a copy of the TrueType font in data with the outlines of
// every glyph outside the used set removed. Glyph ids, metrics and character
// mappings are untouched, so text that references the kept glyphs renders
// exactly as with the full font. Runes the font cannot map are reported in
// missing; they render as the font's notdef glyph.
func SubsetFont(data []byte, used map[rune]struct{}) (subset []byte, missing []rune, err error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid font file: %w", err)
	}

	tables, err := parseTableDirectory(data)
	if err != nil {
		return nil, nil, err
	}
	head, okHead := tables["head"]
	maxp, okMaxp := tables["maxp"]
	loca, okLoca := tables["loca"]
	glyf, okGlyf := tables["glyf"]
	if !okHead || !okMaxp || !okLoca || !okGlyf {
		return nil, nil, fmt.Errorf("font has no TrueType glyph outlines")
	}
	if head.length < 54 || maxp.length < 6 {
		return nil, nil, fmt.Errorf("font head or maxp table truncated")
	}

	numGlyphs := int(binary.BigEndian.Uint16(data[maxp.offset+4:]))
	longLoca := int16(binary.BigEndian.Uint16(data[head.offset+50:])) != 0
	offsets, err := parseLoca(data[loca.offset:loca.offset+loca.length], numGlyphs, longLoca)
	if err != nil {
		return nil, nil, err
	}
	glyfData := data[glyf.offset : glyf.offset+glyf.length]

	keep := make(map[uint16]bool)
	markGlyph(0, glyfData, offsets, keep)
	var buf sfnt.Buffer
	for _, r := range sortedRunes(used) {
		gi, giErr := f.GlyphIndex(&buf, r)
		if giErr != nil || gi == 0 {
			missing = append(missing, r)
			continue
		}
		markGlyph(uint16(gi), glyfData, offsets, keep)
	}

	newGlyf, newLoca := rebuildGlyf(glyfData, offsets, numGlyphs, keep)

	newHead := append([]byte(nil), data[head.offset:head.offset+head.length]...)
	binary.BigEndian.PutUint32(newHead[8:], 0) // checkSumAdjustment, patched below
	binary.BigEndian.PutUint16(newHead[50:], 1)

	subset, err = assembleFont(data, tables, map[string][]byte{
		"head": newHead,
		"glyf": newGlyf,
		"loca": newLoca,
	})
	if err != nil {
		return nil, nil, err
	}
	return subset, missing, nil
}

type sfntTable struct {
	tag            string
	offset, length uint32
}

func parseTableDirectory(data []byte) (map[string]sfntTable, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("font file truncated")
	}
	numTables := int(binary.BigEndian.Uint16(data[4:]))
	if len(data) < 12+16*numTables {
		return nil, fmt.Errorf("font table directory truncated")
	}
	tables := make(map[string]sfntTable, numTables)
	for i := 0; i < numTables; i++ {
		rec := data[12+16*i:]
		t := sfntTable{
			tag:    string(rec[:4]),
			offset: binary.BigEndian.Uint32(rec[8:]),
			length: binary.BigEndian.Uint32(rec[12:]),
		}
		if uint64(t.offset)+uint64(t.length) > uint64(len(data)) {
			return nil, fmt.Errorf("font table %q out of bounds", t.tag)
		}
		tables[t.tag] = t
	}
	return tables, nil
}

func parseLoca(loca []byte, numGlyphs int, long bool) ([]uint32, error) {
	offsets := make([]uint32, numGlyphs+1)
	if long {
		if len(loca) < 4*(numGlyphs+1) {
			return nil, fmt.Errorf("loca table truncated")
		}
		for i := range offsets {
			offsets[i] = binary.BigEndian.Uint32(loca[4*i:])
		}
		return offsets, nil
	}
	if len(loca) < 2*(numGlyphs+1) {
		return nil, fmt.Errorf("loca table truncated")
	}
	for i := range offsets {
		offsets[i] = 2 * uint32(binary.BigEndian.Uint16(loca[2*i:]))
	}
	return offsets, nil
}

// markGlyph adds gid and, for composite glyphs, every component glyph to the
// keep set.
func markGlyph(gid uint16, glyf []byte, offsets []uint32, keep map[uint16]bool) {
	if keep[gid] || int(gid)+1 >= len(offsets) {
		return
	}
	keep[gid] = true

	start, end := offsets[gid], offsets[gid+1]
	if end <= start || uint64(end) > uint64(len(glyf)) {
		return
	}
	g := glyf[start:end]
	if len(g) < 10 || int16(binary.BigEndian.Uint16(g)) >= 0 {
		return
	}

	const (
		argsAreWords   = 0x0001
		haveScale      = 0x0008
		moreComponents = 0x0020
		haveXYScale    = 0x0040
		haveTwoByTwo   = 0x0080
	)
	p := 10
	for {
		if p+4 > len(g) {
			return
		}
		flags := binary.BigEndian.Uint16(g[p:])
		markGlyph(binary.BigEndian.Uint16(g[p+2:]), glyf, offsets, keep)
		p += 4
		if flags&argsAreWords != 0 {
			p += 4
		} else {
			p += 2
		}
		switch {
		case flags&haveScale != 0:
			p += 2
		case flags&haveXYScale != 0:
			p += 4
		case flags&haveTwoByTwo != 0:
			p += 8
		}
		if flags&moreComponents == 0 {
			return
		}
	}
}

// rebuildGlyf copies kept outlines into a fresh glyf table and returns it with
// a matching long-format loca. Dropped glyphs become zero-length entries, the
// encoding of an empty outline.
func rebuildGlyf(glyf []byte, offsets []uint32, numGlyphs int, keep map[uint16]bool) (newGlyf, newLoca []byte) {
	locaVals := make([]uint32, numGlyphs+1)
	for gid := 0; gid < numGlyphs; gid++ {
		locaVals[gid] = uint32(len(newGlyf))
		if !keep[uint16(gid)] {
			continue
		}
		start, end := offsets[gid], offsets[gid+1]
		if end <= start || uint64(end) > uint64(len(glyf)) {
			continue
		}
		newGlyf = append(newGlyf, glyf[start:end]...)
		for len(newGlyf)%4 != 0 {
			newGlyf = append(newGlyf, 0)
		}
	}
	locaVals[numGlyphs] = uint32(len(newGlyf))

	newLoca = make([]byte, 4*(numGlyphs+1))
	for i, v := range locaVals {
		binary.BigEndian.PutUint32(newLoca[4*i:], v)
	}
	return newGlyf, newLoca
}

// assembleFont rewrites the font file with the given tables replaced,
// recomputing directory offsets, lengths and checksums.
func assembleFont(data []byte, tables map[string]sfntTable, replaced map[string][]byte) ([]byte, error) {
	ordered := make([]sfntTable, 0, len(tables))
	for _, t := range tables {
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].offset < ordered[j].offset })

	contents := make(map[string][]byte, len(tables))
	for _, t := range ordered {
		if b, ok := replaced[t.tag]; ok {
			contents[t.tag] = b
			continue
		}
		contents[t.tag] = data[t.offset : t.offset+t.length]
	}

	dirSize := 12 + 16*len(tables)
	out := make([]byte, dirSize, dirSize+len(data))
	copy(out, data[:12])

	newOffsets := make(map[string]uint32, len(tables))
	for _, t := range ordered {
		newOffsets[t.tag] = uint32(len(out))
		out = append(out, contents[t.tag]...)
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
	}

	// The directory keeps its original tag order, which the format requires
	// to be sorted.
	numTables := int(binary.BigEndian.Uint16(data[4:]))
	for i := 0; i < numTables; i++ {
		tag := string(data[12+16*i : 12+16*i+4])
		rec := out[12+16*i:]
		copy(rec[:4], tag)
		binary.BigEndian.PutUint32(rec[4:], tableChecksum(contents[tag]))
		binary.BigEndian.PutUint32(rec[8:], newOffsets[tag])
		binary.BigEndian.PutUint32(rec[12:], uint32(len(contents[tag])))
	}

	headOffset := newOffsets["head"]
	adjustment := 0xB1B0AFBA - tableChecksum(out)
	binary.BigEndian.PutUint32(out[headOffset+8:], adjustment)

	return out, nil
}

// tableChecksum sums a byte slice as big-endian uint32 words, zero padded.
func tableChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		var w uint32
		for j := 0; j < 4; j++ {
			w <<= 8
			if i+j < len(b) {
				w |= uint32(b[i+j])
			}
		}
		sum += w
	}
	return sum
}

func sortedRunes(set map[rune]struct{}) []rune {
	runes := make([]rune, 0, len(set))
	for r := range set {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return runes
}
