// Package orgfake is an in-memory organization service speaking the same
// REST contract as the real one. Tests point an orgclient at URL().
package orgfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/alexanderramin/orgctl/internal/orgclient"
)

type user struct {
	id      string
	name    string
	primary string
	aux     []string
}

type failure struct {
	status int
	code   int
	msg    string
}

// Server holds the organization tree and user attachments.
type Server struct {
	mu      sync.Mutex
	nodes   map[string]*domain.OrgNode
	created map[string]time.Time
	order   []string
	users   map[string]*user
	userIDs []string
	nextID  int
	fail    []failure
	delay   time.Duration

	requests atomic.Int64
	srv      *httptest.Server
}

// New starts a server seeded with nodes. Close it when done.
func New(nodes []domain.OrgNode) *Server {
	s := &Server{
		nodes:   make(map[string]*domain.OrgNode),
		created: make(map[string]time.Time),
		users:   make(map[string]*user),
		nextID:  100,
	}
	for _, n := range nodes {
		s.put(n)
	}
	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) URL() string { return s.srv.URL }

func (s *Server) Close() { s.srv.Close() }

// Requests reports how many requests have reached the server.
func (s *Server) Requests() int64 { return s.requests.Load() }

// FailNext makes the next request answer with an application error.
// A status other than 200 is sent as the HTTP status instead.
func (s *Server) FailNext(status, code int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = append(s.fail, failure{status: status, code: code, msg: msg})
}

// SetDelay holds every response for d.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// AddUser registers a user with a primary department and optional
// auxiliary departments. An empty primary leaves the user unattached.
func (s *Server) AddUser(id, name, primary string, aux ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		s.userIDs = append(s.userIDs, id)
	}
	s.users[id] = &user{id: id, name: name, primary: primary, aux: slices.Clone(aux)}
}

// Node returns a copy of the stored node.
func (s *Server) Node(id string) (domain.OrgNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return domain.OrgNode{}, false
	}
	return *n, true
}

// Primary reports the user's primary department.
func (s *Server) Primary(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return u.primary
	}
	return ""
}

// Auxiliary reports the user's auxiliary departments.
func (s *Server) Auxiliary(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return slices.Clone(u.aux)
	}
	return nil
}

func (s *Server) put(n domain.OrgNode) {
	if n.ParentID == "" {
		n.ParentID = domain.RootParentID
	}
	if _, ok := s.nodes[n.ID]; !ok {
		s.order = append(s.order, n.ID)
	}
	s.nodes[n.ID] = &n
	s.created[n.ID] = time.Now().UTC()
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /organization/tree", s.handleTree)
	mux.HandleFunc("GET /organization/{id}", s.handleDetail)
	mux.HandleFunc("POST /organization", s.handleCreate)
	mux.HandleFunc("PUT /organization/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /organization/{id}", s.handleDelete)
	mux.HandleFunc("POST /organization/move", s.handleMove)
	mux.HandleFunc("GET /organization/{id}/users", s.handleUsers)
	mux.HandleFunc("POST /user/primary-dept", s.handleSetPrimary)
	mux.HandleFunc("POST /user/aux-dept", s.handleAddAux)
	mux.HandleFunc("DELETE /user/{userId}/aux-dept/{deptId}", s.handleRemoveAux)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		s.mu.Lock()
		delay := s.delay
		var f *failure
		if len(s.fail) > 0 {
			f = &s.fail[0]
			s.fail = s.fail[1:]
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			if f.status != 0 && f.status != http.StatusOK {
				writeJSON(w, f.status, map[string]any{"message": f.msg})
				return
			}
			appError(w, f.code, f.msg)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func appError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, http.StatusOK, map[string]any{"code": code, "msg": msg})
}

func ok(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// childrenLocked returns the sorted child ids of parentID.
func (s *Server) childrenLocked(parentID string) []string {
	var ids []string
	for _, id := range s.order {
		if s.nodes[id].ParentID == parentID {
			ids = append(ids, id)
		}
	}
	sort.SliceStable(ids, func(i, j int) bool {
		return s.nodes[ids[i]].SortOrder < s.nodes[ids[j]].SortOrder
	})
	return ids
}

func (s *Server) subtreeLocked(id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		out = append(out, s.childrenLocked(out[i])...)
	}
	return out
}

func (s *Server) isDescendantLocked(ancestor, id string) bool {
	seen := map[string]bool{}
	for cur := id; !domain.IsRootParent(cur) && !seen[cur]; {
		if cur == ancestor {
			return true
		}
		seen[cur] = true
		n, ok := s.nodes[cur]
		if !ok {
			return false
		}
		cur = n.ParentID
	}
	return false
}

func (s *Server) memberCountLocked(orgID string) int {
	n := 0
	for _, uid := range s.userIDs {
		u := s.users[uid]
		if u.primary == orgID || slices.Contains(u.aux, orgID) {
			n++
		}
	}
	return n
}

func (s *Server) siblingNameTakenLocked(parentID, name, exceptID string) bool {
	for _, id := range s.childrenLocked(parentID) {
		if id != exceptID && s.nodes[id].Name == name {
			return true
		}
	}
	return false
}

func (s *Server) codeTakenLocked(code, exceptID string) bool {
	for id, n := range s.nodes {
		if id != exceptID && n.Code == code {
			return true
		}
	}
	return false
}

func (s *Server) wireNode(n *domain.OrgNode) map[string]any {
	return map[string]any{
		"id":               n.ID,
		"parentId":         n.ParentID,
		"name":             n.Name,
		"code":             n.Code,
		"type":             int(n.Type),
		"status":           int(n.Status),
		"sortOrder":        n.SortOrder,
		"leaderId":         n.LeaderID,
		"leaderName":       n.LeaderName,
		"desc":             n.Description,
		"region":           n.Region,
		"isMainDepartment": n.IsMainDepartment,
		"memberCount":      s.memberCountLocked(n.ID),
	}
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := r.URL.Query().Get("name")
	status := r.URL.Query().Get("status")
	keep := make(map[string]bool)
	for _, id := range s.order {
		n := s.nodes[id]
		if name != "" && !strings.Contains(strings.ToLower(n.Name), strings.ToLower(name)) {
			continue
		}
		if status != "" && strconv.Itoa(int(n.Status)) != status {
			continue
		}
		// A match keeps its ancestors so the result stays a tree.
		for cur := id; !domain.IsRootParent(cur) && !keep[cur]; {
			keep[cur] = true
			p, ok := s.nodes[cur]
			if !ok {
				break
			}
			cur = p.ParentID
		}
	}

	var build func(parentID string, seen map[string]bool) []map[string]any
	build = func(parentID string, seen map[string]bool) []map[string]any {
		list := []map[string]any{}
		for _, id := range s.childrenLocked(parentID) {
			if !keep[id] || seen[id] {
				continue
			}
			seen[id] = true
			m := s.wireNode(s.nodes[id])
			m["children"] = build(id, seen)
			list = append(list, m)
		}
		return list
	}
	writeJSON(w, http.StatusOK, map[string]any{"tree": build(domain.RootParentID, map[string]bool{})})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, found := s.nodes[r.PathValue("id")]
	if !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return
	}
	var ancestors []string
	seen := map[string]bool{}
	for cur := n.ParentID; !domain.IsRootParent(cur) && !seen[cur]; {
		seen[cur] = true
		ancestors = append([]string{cur}, ancestors...)
		p, ok := s.nodes[cur]
		if !ok {
			break
		}
		cur = p.ParentID
	}
	detail := s.wireNode(n)
	detail["ancestors"] = strings.Join(append([]string{domain.RootParentID}, ancestors...), ",")
	if p, ok := s.nodes[n.ParentID]; ok {
		detail["parentName"] = p.Name
	}
	created := s.created[n.ID].Format(time.RFC3339)
	detail["createdAt"] = created
	detail["updatedAt"] = created
	writeJSON(w, http.StatusOK, map[string]any{"detail": detail})
}

type createBody struct {
	ParentID         string `json:"parentId"`
	Name             string `json:"name"`
	Code             string `json:"code"`
	Type             int    `json:"type"`
	SortOrder        int    `json:"sortOrder"`
	LeaderID         string `json:"leaderId"`
	Desc             string `json:"desc"`
	Region           string `json:"region"`
	IsMainDepartment bool   `json:"isMainDepartment"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		appError(w, orgclient.CodeParamInvalid, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Code) == "" {
		appError(w, orgclient.CodeParamInvalid, "name and code are required")
		return
	}
	parentID := body.ParentID
	if parentID == "" {
		parentID = domain.RootParentID
	}
	if !domain.IsRootParent(parentID) {
		if _, ok := s.nodes[parentID]; !ok {
			appError(w, orgclient.CodeParentNotFound, "parent organization not found")
			return
		}
	}
	if s.siblingNameTakenLocked(parentID, body.Name, "") {
		appError(w, orgclient.CodeNameDuplicate, "organization name already exists under this parent")
		return
	}
	if s.codeTakenLocked(body.Code, "") {
		appError(w, orgclient.CodeParamInvalid, "organization code already exists")
		return
	}

	s.nextID++
	id := strconv.Itoa(s.nextID)
	typ := domain.OrgType(body.Type)
	if typ == 0 {
		typ = domain.OrgTypeDepartment
	}
	s.put(domain.OrgNode{
		ID:               id,
		ParentID:         parentID,
		Name:             body.Name,
		Code:             body.Code,
		Type:             typ,
		Status:           domain.OrgEnabled,
		SortOrder:        body.SortOrder,
		LeaderID:         body.LeaderID,
		LeaderName:       s.userNameLocked(body.LeaderID),
		Description:      body.Desc,
		Region:           body.Region,
		IsMainDepartment: body.IsMainDepartment && typ == domain.OrgTypeDepartment,
	})
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (s *Server) userNameLocked(id string) string {
	if u, ok := s.users[id]; ok {
		return u.name
	}
	return ""
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		appError(w, orgclient.CodeParamInvalid, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, found := s.nodes[r.PathValue("id")]
	if !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return
	}
	next := *n

	var decodeErr error
	str := func(key string, dst *string) {
		if raw, ok := body[key]; ok && decodeErr == nil {
			decodeErr = json.Unmarshal(raw, dst)
		}
	}
	num := func(key string, dst *int) {
		if raw, ok := body[key]; ok && decodeErr == nil {
			decodeErr = json.Unmarshal(raw, dst)
		}
	}
	typ, status := int(next.Type), int(next.Status)
	str("name", &next.Name)
	str("code", &next.Code)
	str("leaderId", &next.LeaderID)
	str("desc", &next.Description)
	str("region", &next.Region)
	num("type", &typ)
	num("status", &status)
	num("sortOrder", &next.SortOrder)
	if raw, ok := body["isMainDepartment"]; ok && decodeErr == nil {
		decodeErr = json.Unmarshal(raw, &next.IsMainDepartment)
	}
	if decodeErr != nil {
		appError(w, orgclient.CodeParamInvalid, "invalid field value")
		return
	}
	next.Type = domain.OrgType(typ)
	next.Status = domain.OrgStatus(status)

	if strings.TrimSpace(next.Name) == "" || strings.TrimSpace(next.Code) == "" {
		appError(w, orgclient.CodeParamInvalid, "name and code are required")
		return
	}
	if next.Name != n.Name && s.siblingNameTakenLocked(n.ParentID, next.Name, n.ID) {
		appError(w, orgclient.CodeNameDuplicate, "organization name already exists under this parent")
		return
	}
	if next.Code != n.Code && s.codeTakenLocked(next.Code, n.ID) {
		appError(w, orgclient.CodeParamInvalid, "organization code already exists")
		return
	}
	if next.Status == domain.OrgDisabled && n.Status != domain.OrgDisabled {
		for _, child := range s.childrenLocked(n.ID) {
			if s.nodes[child].Status == domain.OrgEnabled {
				appError(w, orgclient.CodeHasActiveChildren, "organization has enabled sub-organizations")
				return
			}
		}
	}
	if _, ok := body["leaderId"]; ok {
		next.LeaderName = s.userNameLocked(next.LeaderID)
	}
	*n = next
	ok(w)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	n, found := s.nodes[id]
	if !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return
	}
	if domain.IsRootParent(n.ParentID) {
		appError(w, orgclient.CodeRootDelete, "root organization cannot be deleted")
		return
	}
	if len(s.childrenLocked(id)) > 0 {
		appError(w, orgclient.CodeHasChildren, "organization has sub-organizations")
		return
	}
	if s.memberCountLocked(id) > 0 {
		appError(w, orgclient.CodeHasUsers, "organization has members")
		return
	}
	delete(s.nodes, id)
	delete(s.created, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
	ok(w)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var body orgclient.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		appError(w, orgclient.CodeParamInvalid, "invalid request body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, found := s.nodes[body.ID]
	if !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return
	}
	target := body.TargetParentID
	if target == "" {
		target = domain.RootParentID
	}
	if !domain.IsRootParent(target) {
		if _, ok := s.nodes[target]; !ok {
			appError(w, orgclient.CodeParentNotFound, "target parent not found")
			return
		}
		if s.isDescendantLocked(n.ID, target) {
			appError(w, orgclient.CodeMoveCycle, "cannot move an organization under itself or its descendants")
			return
		}
	}
	if target != n.ParentID && s.siblingNameTakenLocked(target, n.Name, n.ID) {
		appError(w, orgclient.CodeNameDuplicate, "organization name already exists under this parent")
		return
	}
	n.ParentID = target
	for i, id := range body.SortOrders {
		if sib, ok := s.nodes[id]; ok && sib.ParentID == target {
			sib.SortOrder = i + 1
		}
	}
	ok(w)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	if _, found := s.nodes[id]; !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return
	}
	orgs := []string{id}
	if r.URL.Query().Get("recursive") == "true" {
		orgs = s.subtreeLocked(id)
	}

	users := []map[string]any{}
	for _, uid := range s.userIDs {
		u := s.users[uid]
		attached, primary := false, false
		for _, org := range orgs {
			if u.primary == org {
				attached, primary = true, true
			} else if slices.Contains(u.aux, org) {
				attached = true
			}
		}
		if attached {
			users = append(users, map[string]any{"userId": u.id, "userName": u.name, "isPrimary": primary})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type userDeptBody struct {
	UserID string `json:"userId"`
	DeptID string `json:"deptId"`
}

func (s *Server) decodeUserDept(w http.ResponseWriter, r *http.Request) (*user, string, bool) {
	var body userDeptBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		appError(w, orgclient.CodeParamInvalid, "invalid request body")
		return nil, "", false
	}
	u, found := s.users[body.UserID]
	if !found {
		appError(w, orgclient.CodeParamInvalid, "user not found")
		return nil, "", false
	}
	if _, found := s.nodes[body.DeptID]; !found {
		appError(w, orgclient.CodeNotFound, "organization not found")
		return nil, "", false
	}
	return u, body.DeptID, true
}

// handleSetPrimary demotes the previous primary department to auxiliary.
func (s *Server) handleSetPrimary(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, dept, valid := s.decodeUserDept(w, r)
	if !valid {
		return
	}
	if u.primary == dept {
		ok(w)
		return
	}
	u.aux = slices.DeleteFunc(u.aux, func(a string) bool { return a == dept })
	if u.primary != "" {
		u.aux = append(u.aux, u.primary)
	}
	u.primary = dept
	ok(w)
}

func (s *Server) handleAddAux(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, dept, valid := s.decodeUserDept(w, r)
	if !valid {
		return
	}
	if u.primary == dept {
		appError(w, orgclient.CodePrimaryInvalid, "department is already the user's primary department")
		return
	}
	if !slices.Contains(u.aux, dept) {
		u.aux = append(u.aux, dept)
	}
	ok(w)
}

func (s *Server) handleRemoveAux(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, found := s.users[r.PathValue("userId")]
	dept := r.PathValue("deptId")
	if !found || !slices.Contains(u.aux, dept) {
		appError(w, orgclient.CodeAuxMissing, "auxiliary department not found")
		return
	}
	u.aux = slices.DeleteFunc(u.aux, func(a string) bool { return a == dept })
	ok(w)
}
