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

package wire

import (
	"fmt"
	"strconv"

	"github.com/coinbase/fixengine/datadictionary"
	"github.com/coinbase/fixengine/message"
)

type section int

const (
	sectionHeader section = iota
	sectionBody
	sectionTrailer
)

// Parse tokenizes raw and sections it into a *message.Message against dict,
// walking fields in wire order and routing each one to the header, body or
// trailer FieldMap. A tag that appears after the section it belongs to has
// already closed (a body tag after CheckSum, a header tag after the body
// has started) marks the owning FieldMap OutOfOrder rather than failing the
// parse outright -- structural-order problems ("tag specified out of
// order") are a validation concern, not a framing one.
func Parse(raw []byte, dict *datadictionary.DataDictionary) (*message.Message, error) {
	fields, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("wire: empty message")
	}

	msgType := findMsgType(fields)

	msg := message.New()
	p := &parser{fields: fields, dict: dict, msgType: msgType}
	p.run(msg)
	return msg, nil
}

func findMsgType(fields []message.Field) string {
	for _, f := range fields {
		if f.Tag == message.TagMsgType {
			return f.Value
		}
	}
	return ""
}

type parser struct {
	fields  []message.Field
	dict    *datadictionary.DataDictionary
	msgType string
	pos     int
}

func (p *parser) run(msg *message.Message) {
	phase := sectionHeader
	for p.pos < len(p.fields) {
		f := p.fields[p.pos]
		kind := p.classify(f.Tag)

		switch {
		case kind == sectionHeader && phase != sectionHeader:
			msg.Header.MarkOutOfOrder(f.Tag)
		case kind == sectionBody && phase == sectionTrailer:
			msg.Body.MarkOutOfOrder(f.Tag)
		case kind == sectionHeader:
			// still in header, nothing to flag
		default:
			if kind > phase {
				phase = kind
			}
		}

		dest := msg.Header
		switch kind {
		case sectionBody:
			dest = msg.Body
		case sectionTrailer:
			dest = msg.Trailer
		}

		p.consumeField(dest)
	}
}

// classify reports which section tag belongs to. BeginString/BodyLength/
// MsgType and CheckSum are pinned regardless of what the dictionary
// declares, since every FIX version fixes their position on the wire.
func (p *parser) classify(tag message.Tag) section {
	switch tag {
	case message.TagBeginString, message.TagBodyLength, message.TagMsgType:
		return sectionHeader
	case message.TagCheckSum:
		return sectionTrailer
	}
	if p.dict != nil {
		if p.dict.IsHeaderField(tag) {
			return sectionHeader
		}
		if p.dict.IsTrailerField(tag) {
			return sectionTrailer
		}
	}
	return sectionBody
}

// consumeField appends the field at p.pos to dest, descending into a
// repeating group if the dictionary declares one under this tag for the
// current message type.
func (p *parser) consumeField(dest *message.FieldMap) {
	f := p.fields[p.pos]
	dest.Add(f.Tag, f.Value)
	p.pos++

	if p.dict == nil {
		return
	}
	def, ok := p.dict.Group(p.msgType, f.Tag)
	if !ok {
		return
	}
	count, err := strconv.Atoi(f.Value)
	if err != nil || count <= 0 {
		return
	}
	instances := p.parseGroupInstances(def, count)
	dest.SetGroups(f.Tag, instances)
}

// parseGroupInstances consumes up to count instances of a group, each
// instance starting at def.Delimiter and running until the next delimiter
// occurrence or a tag that doesn't belong to the group's nested dictionary
// (whichever comes first) -- the same "next occurrence of the delimiter
// tag closes the previous instance" rule quickfix's group parser uses.
func (p *parser) parseGroupInstances(def datadictionary.GroupDef, count int) []*message.FieldMap {
	instances := make([]*message.FieldMap, 0, count)
	for i := 0; i < count; i++ {
		if p.pos >= len(p.fields) || p.fields[p.pos].Tag != def.Delimiter {
			break
		}
		inst := message.NewFieldMap()
		inst.Add(p.fields[p.pos].Tag, p.fields[p.pos].Value)
		p.pos++

		for p.pos < len(p.fields) {
			next := p.fields[p.pos]
			if next.Tag == def.Delimiter {
				break // next instance begins
			}
			if def.Dict != nil && !def.Dict.HasField(next.Tag) {
				break // tag belongs to an outer section
			}
			nestedParser := &parser{fields: p.fields, dict: def.Dict, msgType: p.msgType, pos: p.pos}
			nestedParser.consumeField(inst)
			p.pos = nestedParser.pos
		}
		instances = append(instances, inst)
	}
	return instances
}
