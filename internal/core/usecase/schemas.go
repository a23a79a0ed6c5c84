package usecase

// JSON schemas handed to the backing service as structured-output contracts.
// Field names line up with the wire tags on the domain fact and decision
// types; the strict decoders in extract.go and decide.go enforce the match.

const claimFactsSchema = `{
  "type": "object",
  "properties": {
    "claim_data": {
      "type": "object",
      "properties": {
        "claim_details": {
          "type": "object",
          "properties": {
            "claim_number": {"type": "string"},
            "first_name": {"type": "string"},
            "last_name": {"type": "string"},
            "phone_number": {"type": "string"},
            "mobile_number": {"type": "string"},
            "business_number": {"type": "string"},
            "zip_postal_code": {"type": "string"},
            "date_of_loss": {"type": "string"},
            "description": {"type": "string"}
          }
        },
        "claim_reason": {
          "type": "object",
          "properties": {
            "claim_type": {"type": "string"},
            "claim_reason_type": {"type": "string"}
          }
        },
        "claimants_expense": {
          "type": "object",
          "properties": {
            "total_claimed_amount": {"type": "string"},
            "total_expected_refunds": {"type": "string"}
          }
        },
        "is_health_related": {"type": "boolean"}
      }
    },
    "policy_data": {
      "type": "object",
      "properties": {
        "policy_info": {
          "type": "object",
          "properties": {
            "policy_number": {"type": "string"},
            "issuer_name": {"type": "string"},
            "product_name": {"type": "string"},
            "policy_total_cost": {"type": "string"},
            "coverage_effective_date": {"type": "string"},
            "coverage_expiration_date": {"type": "string"}
          }
        },
        "contact_info": {
          "type": "object",
          "properties": {
            "policy_holder_name": {"type": "string"},
            "email": {"type": "string"}
          }
        },
        "trip_details": {
          "type": "object",
          "properties": {
            "trip_cost": {"type": "string"},
            "trip_destination": {"type": "string"},
            "departure_date": {"type": "string"},
            "return_date": {"type": "string"}
          }
        },
        "coverages_and_benefit_limits": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "hotel_data": {
      "type": "object",
      "properties": {
        "property_name": {"type": "string"},
        "check_in_date": {"type": "string"},
        "check_out_date": {"type": "string"},
        "nights": {"type": "integer"},
        "total_price": {"type": "string"}
      }
    }
  }
}`

const decisionSchema = `{
  "type": "object",
  "required": ["appetite", "decision_reason", "confidence_level"],
  "properties": {
    "appetite": {"type": "string", "enum": ["approve", "decline"]},
    "decision_reason": {"type": "string"},
    "confidence_level": {"type": "number"},
    "summary_of_findings": {"type": "string"},
    "case_description": {"type": "string"},
    "fraud_and_amount_check": {
      "type": "object",
      "properties": {
        "is_fraud_suspected": {"type": "boolean"},
        "fraud_reasons": {"type": "array", "items": {"type": "string"}},
        "approved_amount": {"type": ["string", "null"]},
        "policy_claimable_max": {"type": ["string", "null"]},
        "within_limit": {"type": ["boolean", "null"]},
        "capped_payout": {"type": ["string", "null"]}
      }
    },
    "payment_check": {
      "type": "object",
      "properties": {
        "payment_status": {"type": "string", "enum": ["not_resolved", "partial_payment", "full_payment"]},
        "payment_reason": {"type": "string"}
      }
    },
    "refunds_check": {
      "type": "object",
      "properties": {
        "expected_refund": {"type": ["string", "null"]},
        "protection_plan_cost": {"type": ["string", "null"]},
        "refund_net_of_premium": {"type": ["string", "null"]},
        "matched_coverage_label": {"type": "string"},
        "matched_coverage_terms": {"type": "string"}
      }
    },
    "premium_amount_check": {
      "type": "object",
      "properties": {
        "premium_amount": {"type": ["string", "null"]}
      }
    }
  }
}`
