/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package datadictionary

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/coinbase/fixengine/message"
)

// The XML loader is deliberately replaceable by any DOM reader. We still
// ship one (against encoding/xml, not a third-party DOM library -- see
// DESIGN.md) so the dictionary can be exercised end to end from the
// on-disk QuickFIX-style data dictionaries every FIX engine ships.

type xmlFix struct {
	XMLName    xml.Name      `xml:"fix"`
	Type       string        `xml:"type,attr"`
	Major      int           `xml:"major,attr"`
	Minor      int           `xml:"minor,attr"`
	Fields     xmlFieldsTag  `xml:"fields"`
	Header     xmlFieldGroup `xml:"header"`
	Trailer    xmlFieldGroup `xml:"trailer"`
	Messages   xmlMessages   `xml:"messages"`
	Components xmlComponents `xml:"components"`
}

type xmlFieldsTag struct {
	Field []xmlFieldDef `xml:"field"`
}

type xmlFieldDef struct {
	Number int         `xml:"number,attr"`
	Name   string      `xml:"name,attr"`
	Type   string      `xml:"type,attr"`
	Values []xmlValue  `xml:"value"`
}

type xmlValue struct {
	Enum        string `xml:"enum,attr"`
	Description string `xml:"description,attr"`
}

type xmlFieldGroup struct {
	Entries []xmlEntry `xml:",any"`
}

// xmlEntry models the three element kinds <field>, <component> and
// <group> can interleave as direct children of <header>, <trailer>,
// <message> or <component> -- encoding/xml can't discriminate by tag name
// inside a single slice without a custom UnmarshalXML, so we decode each
// child generically and dispatch on XMLName.Local.
type xmlEntry struct {
	XMLName  xml.Name
	Name     string     `xml:"name,attr"`
	Required string     `xml:"required,attr"`
	Entries  []xmlEntry `xml:",any"`
}

type xmlMessages struct {
	Message []xmlMessage `xml:"message"`
}

type xmlMessage struct {
	Name    string     `xml:"name,attr"`
	MsgType string     `xml:"msgtype,attr"`
	Entries []xmlEntry `xml:",any"`
}

type xmlComponents struct {
	Component []xmlComponent `xml:"component"`
}

type xmlComponent struct {
	Name    string     `xml:"name,attr"`
	Entries []xmlEntry `xml:",any"`
}

// LoadXML reads a QuickFIX-style data dictionary XML document from path.
func LoadXML(path string) (*DataDictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Text: err.Error()}
	}
	defer f.Close()
	d, err := parseXML(f)
	if err != nil {
		return nil, &LoadError{Path: path, Text: err.Error()}
	}
	return d, nil
}

func parseXML(r io.Reader) (*DataDictionary, error) {
	var doc xmlFix
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("malformed XML: %w", err)
	}

	beginString := fmt.Sprintf("%s.%d.%d", doc.Type, doc.Major, doc.Minor)
	version, err := message.ParseVersion(beginString)
	if err != nil {
		return nil, err
	}
	atLeast42 := !version.Less(message.FIX42)

	d := New(version)

	byName := make(map[string]xmlFieldDef, len(doc.Fields.Field))
	for _, fd := range doc.Fields.Field {
		ft := parseFieldType(fd.Type, atLeast42)
		d.AddField(message.Tag(fd.Number), fd.Name, ft)
		for _, v := range fd.Values {
			d.AddEnumValue(message.Tag(fd.Number), v.Enum, v.Description)
		}
		if ft == Data {
			d.MarkDataField(message.Tag(fd.Number))
		}
		byName[fd.Name] = fd
	}

	components := make(map[string]xmlComponent, len(doc.Components.Component))
	for _, c := range doc.Components.Component {
		components[c.Name] = c
	}

	parseFieldGroup := false
	// Trailer/header are only meaningful for FIXT or pre-5.x FIX.
	if version.IsFIXT() || version.Major < 5 {
		parseFieldGroup = true
	}
	if parseFieldGroup {
		loadFieldGroupInto(d, "", doc.Header.Entries, byName, components, true, false)
		loadFieldGroupInto(d, "", doc.Trailer.Entries, byName, components, false, true)
	}

	for _, m := range doc.Messages.Message {
		loadFieldGroupInto(d, m.MsgType, m.Entries, byName, components, false, false)
	}

	return d, nil
}

// loadFieldGroupInto walks a <header>/<trailer>/<message>/<component>'s
// children, inlining <component> contents (which may themselves contain
// groups) and recursing into <group> as a freshly assembled nested
// DataDictionary.
func loadFieldGroupInto(d *DataDictionary, msgType string, entries []xmlEntry, byName map[string]xmlFieldDef, components map[string]xmlComponent, isHeader, isTrailer bool) {
	for _, e := range entries {
		switch e.XMLName.Local {
		case "field":
			fd, ok := byName[e.Name]
			if !ok {
				continue
			}
			required := e.Required == "Y"
			tag := message.Tag(fd.Number)
			if !d.HasField(tag) {
				// A nested group dictionary starts empty: register each member
				// so the group's own field universe covers it.
				d.AddField(tag, fd.Name, parseFieldType(fd.Type, !d.Version.Less(message.FIX42)))
			}
			switch {
			case isHeader:
				d.AddHeaderField(tag, required)
			case isTrailer:
				d.AddTrailerField(tag, required)
			default:
				d.AddMessageField(msgType, tag, required)
			}
		case "component":
			if comp, ok := components[e.Name]; ok {
				loadFieldGroupInto(d, msgType, comp.Entries, byName, components, isHeader, isTrailer)
			}
		case "group":
			fd, ok := byName[e.Name]
			if !ok {
				continue
			}
			tag := message.Tag(fd.Number)
			required := e.Required == "Y"
			if !d.HasField(tag) {
				d.AddField(tag, fd.Name, parseFieldType(fd.Type, !d.Version.Less(message.FIX42)))
			}
			switch {
			case isHeader:
				d.AddHeaderField(tag, required)
			case isTrailer:
				d.AddTrailerField(tag, required)
			default:
				d.AddMessageField(msgType, tag, required)
			}

			nested := New(d.Version)
			loadFieldGroupInto(nested, msgType, e.Entries, byName, components, false, false)
			delimiter, _ := firstFieldTag(e.Entries, byName, components)
			d.AddGroup(msgType, tag, delimiter, nested)
		}
	}
}

// firstFieldTag returns the tag of the first <field> (after inlining any
// leading <component>) inside a <group>, used as its implicit delimiter
// when the XML doesn't name one out of band.
func firstFieldTag(entries []xmlEntry, byName map[string]xmlFieldDef, components map[string]xmlComponent) (message.Tag, bool) {
	for _, e := range entries {
		switch e.XMLName.Local {
		case "field", "group":
			if fd, ok := byName[e.Name]; ok {
				return message.Tag(fd.Number), true
			}
		case "component":
			if comp, ok := components[e.Name]; ok {
				if t, ok := firstFieldTag(comp.Entries, byName, components); ok {
					return t, true
				}
			}
		}
	}
	return 0, false
}
