package httpagent

// Reconciliation is the outcome of comparing a desired entity set against
// the set previously registered for the same configuration entry.
type Reconciliation struct {
	// Create holds desired entities whose identifiers were not previously
	// registered.
	Create []Entity

	// Keep holds desired entities whose identifiers were already
	// registered. They are re-registered in place; the host platform
	// treats that as a metadata update, so renames and icon changes take
	// effect without the entity disappearing.
	Keep []Entity

	// Remove holds previously registered identifiers absent from the
	// desired set.
	Remove []string
}

// Reconcile diffs a desired entity set against the identifiers currently
// registered for one configuration entry.
//
// Matching is by unique identifier only. An entity whose identifier is
// unchanged lands in Keep no matter how much its display metadata changed;
// an entity whose endpoint URL or expression changed gets a new identifier
// and appears as a Create plus a Remove of the old one.
//
// Reconcile is a pure function of its inputs. In particular it never
// consults fetch results: a request failure is not evidence that an entity
// stopped being desired, so transient failures can never cause removal.
func Reconcile(previous []string, desired []Entity) Reconciliation {
	desiredByID := make(map[string]struct{}, len(desired))
	for _, e := range desired {
		desiredByID[e.ID] = struct{}{}
	}

	previousByID := make(map[string]struct{}, len(previous))
	for _, id := range previous {
		previousByID[id] = struct{}{}
	}

	var rec Reconciliation
	for _, e := range desired {
		if _, ok := previousByID[e.ID]; ok {
			rec.Keep = append(rec.Keep, e)
		} else {
			rec.Create = append(rec.Create, e)
		}
	}
	for _, id := range previous {
		if _, ok := desiredByID[id]; !ok {
			rec.Remove = append(rec.Remove, id)
		}
	}
	return rec
}
