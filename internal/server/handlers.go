package server

import (
	"encoding/json"
	"net/http"

	"github.com/shelfscout/shelfscout/pkg/route"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	barcode := q.Get("barcode")
	if barcode == "" {
		http.Error(w, "barcode is required", http.StatusBadRequest)
		return
	}

	info := s.Resolver.Resolve(r.Context(), barcode, q.Get("location"))
	if info == nil {
		http.Error(w, "no product information available", http.StatusNotFound)
		return
	}

	if q.Get("save") == "true" {
		item := route.ShoppingItem{Barcode: barcode, Name: info.Name, Quantity: 1, Image: info.Image, Aisle: info.Inventory.Aisle}
		if err := s.DB.UpsertItem(r.Context(), item); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := s.DB.RecordObservations(r.Context(), info); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	json.NewEncoder(w).Encode(info)
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	items, err := s.DB.ListItems(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(route.Optimize(items))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.DB.ListItems(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(items)
}

type AddItemRequest struct {
	Barcode  string `json:"barcode"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Aisle    string `json:"aisle"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Barcode == "" || req.Name == "" {
		http.Error(w, "barcode and name are required", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	item := route.ShoppingItem{Barcode: req.Barcode, Name: req.Name, Quantity: req.Quantity, Aisle: req.Aisle}
	if err := s.DB.UpsertItem(r.Context(), item); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	barcode := r.URL.Query().Get("barcode")
	if barcode == "" {
		http.Error(w, "barcode is required", http.StatusBadRequest)
		return
	}
	if err := s.DB.RemoveItem(r.Context(), barcode); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
