package store

import (
	"fmt"

	"github.com/mesh-intelligence/typestore/pkg/types"
)

const (
	insertObject    = `INSERT INTO objects (object_id, type_id) VALUES (?, ?)`
	insertString    = `INSERT INTO string_values (object_id, property_id, value) VALUES (?, ?, ?)`
	insertReference = `INSERT INTO reference_values (object_id, property_id, value_id) VALUES (?, ?, ?)`

	upsertString = `INSERT INTO string_values (object_id, property_id, value) VALUES (?, ?, ?)
ON CONFLICT (object_id, property_id) DO UPDATE SET value = excluded.value`
	upsertReference = `INSERT INTO reference_values (object_id, property_id, value_id) VALUES (?, ?, ?)
ON CONFLICT (object_id, property_id) DO UPDATE SET value_id = excluded.value_id`

	deleteStrings    = `DELETE FROM string_values WHERE object_id = ?`
	deleteReferences = `DELETE FROM reference_values WHERE object_id = ?`
	deleteObject     = `DELETE FROM objects WHERE object_id = ?`

	selectTypeID = `SELECT type_id FROM objects WHERE object_id = ?`

	selectStringsIn    = `SELECT object_id, property_id, value FROM string_values WHERE object_id`
	selectReferencesIn = `SELECT object_id, property_id, value_id FROM reference_values WHERE object_id`
)

// insert stores a transient entity under a fresh id: one identity row, then
// one attribute row per set property. The id is returned but not assigned;
// the caller assigns it once every statement has succeeded.
func (s *Store) insert(e *Entity) (int64, error) {
	id, err := s.gw.NextID()
	if err != nil {
		return 0, err
	}
	if _, err := s.gw.Exec(insertObject, id, e.typeID); err != nil {
		return 0, fmt.Errorf("inserting %s %d: %w", e.TypeName(), id, err)
	}
	for propertyID, v := range e.strings {
		if _, err := s.gw.Exec(insertString, id, propertyID, v); err != nil {
			return 0, fmt.Errorf("inserting %s %d property %d: %w", e.TypeName(), id, propertyID, err)
		}
	}
	for propertyID, r := range e.refs {
		if _, err := s.gw.Exec(insertReference, id, propertyID, r.currentID()); err != nil {
			return 0, fmt.Errorf("inserting %s %d property %d: %w", e.TypeName(), id, propertyID, err)
		}
	}
	s.log.Debug("insert", "session", s.id, "op", "insert", "id", id, "type", e.TypeName())
	return id, nil
}

// update writes every modified property of a persisted entity. A property
// stored for the first time gets a new row; others are overwritten.
func (s *Store) update(e *Entity) error {
	for propertyID := range e.dirty {
		var err error
		if v, ok := e.strings[propertyID]; ok {
			_, err = s.gw.Exec(upsertString, e.id, propertyID, v)
		} else if r, ok := e.refs[propertyID]; ok {
			_, err = s.gw.Exec(upsertReference, e.id, propertyID, r.currentID())
		}
		if err != nil {
			return fmt.Errorf("updating %s %d property %d: %w", e.TypeName(), e.id, propertyID, err)
		}
	}
	s.log.Debug("update", "session", s.id, "op", "update", "id", e.id, "type", e.TypeName(), "properties", len(e.dirty))
	return nil
}

// delete removes the attribute rows of e and then its identity row.
func (s *Store) delete(e *Entity) error {
	for _, stmt := range []string{deleteStrings, deleteReferences, deleteObject} {
		if _, err := s.gw.Exec(stmt, e.id); err != nil {
			return fmt.Errorf("deleting %s %d: %w", e.TypeName(), e.id, err)
		}
	}
	s.log.Debug("delete", "session", s.id, "op", "delete", "id", e.id, "type", e.TypeName())
	return nil
}

// FetchByID returns the stored entity id with all its attributes.
func (s *Store) FetchByID(id int64) (*Entity, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.gw.Query(selectTypeID, id)
	if err != nil {
		return nil, fmt.Errorf("fetching %d: %w", id, err)
	}
	var typeID int64
	found := rows.Next()
	if found {
		err = rows.Scan(&typeID)
	}
	if err == nil {
		err = rows.Err()
	}
	rows.Close()
	if err != nil {
		return nil, types.StorageError(fmt.Sprintf("fetching %d", id), err)
	}
	if !found {
		return nil, types.Errorf(types.ErrNotFound, "no object with id %d", id)
	}

	td, err := s.catalog.TypeByID(typeID)
	if err != nil {
		return nil, err
	}
	e := newEntity(s, td.ID, td.Name, StatePersisted)
	e.id = id
	if err := s.loadAttributes(map[int64]*Entity{id: e}, []int64{id}); err != nil {
		return nil, err
	}
	s.log.Debug("fetch", "session", s.id, "op", "fetch_by_id", "id", id, "type", td.Name)
	return e, nil
}

// FetchByKey returns every entity of the template's type whose attributes
// equal each property set on the template, ordered by id. A template with
// nothing set matches every entity of its type.
func (s *Store) FetchByKey(template *Entity) ([]*Entity, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := template.checkReferences(); err != nil {
		return nil, err
	}
	td, err := s.catalog.TypeByID(template.typeID)
	if err != nil {
		return nil, err
	}

	query, args := buildKeyQuery(td.ID, keyPredicates(template))
	rows, err := s.gw.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching %s by key: %w", td.Name, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, types.StorageError("scanning key match", err)
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, types.StorageError("iterating key matches", err)
	}

	results := make([]*Entity, 0, len(ids))
	byID := make(map[int64]*Entity, len(ids))
	for _, id := range ids {
		e := newEntity(s, td.ID, td.Name, StatePersisted)
		e.id = id
		byID[id] = e
		results = append(results, e)
	}
	for _, batch := range batches(ids, s.batchSize) {
		if err := s.loadAttributes(byID, batch); err != nil {
			return nil, err
		}
	}
	s.log.Debug("fetch", "session", s.id, "op", "fetch_by_key", "type", td.Name, "matches", len(results))
	return results, nil
}

// loadAttributes reads the string and reference rows of ids into the
// matching entities of byID.
func (s *Store) loadAttributes(byID map[int64]*Entity, ids []int64) error {
	query, args := buildInQuery(selectStringsIn, ids)
	rows, err := s.gw.Query(query, args...)
	if err != nil {
		return fmt.Errorf("loading string values: %w", err)
	}
	for rows.Next() {
		var objectID, propertyID int64
		var value string
		if err := rows.Scan(&objectID, &propertyID, &value); err != nil {
			rows.Close()
			return types.StorageError("scanning string value", err)
		}
		if e, ok := byID[objectID]; ok {
			e.strings[propertyID] = value
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return types.StorageError("iterating string values", err)
	}

	query, args = buildInQuery(selectReferencesIn, ids)
	rows, err = s.gw.Query(query, args...)
	if err != nil {
		return fmt.Errorf("loading reference values: %w", err)
	}
	for rows.Next() {
		var objectID, propertyID, valueID int64
		if err := rows.Scan(&objectID, &propertyID, &valueID); err != nil {
			rows.Close()
			return types.StorageError("scanning reference value", err)
		}
		if e, ok := byID[objectID]; ok {
			e.refs[propertyID] = &reference{id: valueID}
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return types.StorageError("iterating reference values", err)
	}
	return nil
}

// resolve returns the entity behind a reference value. Types come from the
// catalog so a session holds one entity per Type; anything else is
// fetched.
func (s *Store) resolve(pd *PropertyDef, id int64) (*Entity, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if pd.RefTypeID == types.TypeTypeID {
		td, err := s.catalog.TypeByID(id)
		if err != nil {
			return nil, err
		}
		return td.Entity, nil
	}
	return s.FetchByID(id)
}
