package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"clubhouse/authority"
	"clubhouse/bizerror"
	"clubhouse/es"
	"clubhouse/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	PersonIndexName = "persons"

	IndexPersonsFunc  = IndexPersons
	SearchPersonsFunc = SearchPersons
	RemovePersonFunc  = RemovePerson
)

// PersonDocument is the indexed projection of a person record. It carries
// only the fields the roster search screens need.
type PersonDocument struct {
	ID types.ID `json:"id"`

	Callsign  string `json:"callsign"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Status    string `json:"status"`
}

type PersonSearchQuery struct {
	Query    string   `json:"query" form:"query" binding:"required,lte=255"`
	Statuses []string `json:"statuses" form:"statuses"`
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexPersons(docs []PersonDocument, s *session.Session) error {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(PersonIndexName, doc.ID, doc, s); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index person %d %s %s\n", doc.ID, doc.Callsign, err)
		} else {
			logrus.Infof("index person %d %s successfully\n", doc.ID, doc.Callsign)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func RemovePerson(id types.ID, s *session.Session) error {
	return es.DeleteDocumentByIdFunc(PersonIndexName, id, s)
}

func SearchPersons(q PersonSearchQuery, s *session.Session) ([]PersonDocument, error) {
	if !s.Perms.HasAnyRole(authority.RoleAdmin, authority.RoleManage, authority.RoleTimesheetManagement) {
		return nil, bizerror.ErrForbidden
	}

	/*
		{
			"query": {
				"bool": {
					"filter": [
						{"bool": {"should": [
							{"match": {"callsign": {"query": "xxx", "operator": "AND"}}},
							{"match": {"firstName": {"query": "xxx", "operator": "AND"}}},
							{"match": {"lastName": {"query": "xxx", "operator": "AND"}}}
						]}},
						{"terms": {"status": ["active"]}}
					]
				}
			},
			"size": 10000,
			"sort": [{"callsign.keyword": {"order": "asc"}}]
		}
	*/
	filters := make([]es.H, 0, 2)
	filters = append(filters, es.H{"bool": es.H{"should": []es.H{
		{"match": es.H{"callsign": es.H{"query": q.Query, "operator": "AND"}}},
		{"match": es.H{"firstName": es.H{"query": q.Query, "operator": "AND"}}},
		{"match": es.H{"lastName": es.H{"query": q.Query, "operator": "AND"}}},
	}}})
	if len(q.Statuses) > 0 {
		filters = append(filters, es.H{"terms": es.H{"status": q.Statuses}})
	}

	sorts := []es.H{{"callsign.keyword": es.H{"order": "asc"}}}

	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(PersonIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	docs := make([]PersonDocument, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		doc := PersonDocument{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&doc); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
